package model

// WordEntry is one record of a language word list
type WordEntry struct {
	ID        int    `json:"id" bson:"id"`
	Word      string `json:"word" bson:"word"`
	Length    int    `json:"length" bson:"length"`
	Form      string `json:"form" bson:"form"`
	Frequency int64  `json:"frequency" bson:"frequency"`
	Dialect   string `json:"dialect,omitempty" bson:"dialect,omitempty"`
}
