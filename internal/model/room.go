package model

import (
	"strings"
	"time"
)

// RoomID uniquely identifies a room
type RoomID string

// Language selects the word list and grapheme rules for a room
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageSerbian Language = "serbian"
)

// SupportedLanguages lists every language with a word list
var SupportedLanguages = []Language{LanguageEnglish, LanguageSerbian}

// ParseLanguage normalises a language name, reporting whether it is supported
func ParseLanguage(s string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range SupportedLanguages {
		if l == lang {
			return lang, true
		}
	}
	return lang, false
}

// WordSource identifies where a room's round words come from
type WordSource string

const (
	WordSourceServer  WordSource = "SERVER"
	WordSourcePlayers WordSource = "PLAYERS"
)

// Room is the persisted metadata for a game room
type Room struct {
	ID         RoomID     `json:"id" bson:"_id"`
	Name       string     `json:"name" bson:"name"`
	HostID     UserID     `json:"host_id" bson:"host_id"`
	Language   Language   `json:"language" bson:"language"`
	WordSource WordSource `json:"word_source" bson:"word_source"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}
