package rating

import (
	"math"

	"github.com/mcoot/connectaword/internal/model"
)

// Config holds the Elo parameters
type Config struct {
	KFactorNewbie  float64
	KFactorRegular float64
	// NewbieGames is the games-played count below which KFactorNewbie applies
	NewbieGames int
	Divisor     float64
}

// DefaultConfig returns the standard Elo parameters
func DefaultConfig() Config {
	return Config{
		KFactorNewbie:  40,
		KFactorRegular: 20,
		NewbieGames:    30,
		Divisor:        400,
	}
}

// Participant is one finished player's input to a rating update
type Participant struct {
	UserID      model.UserID
	Score       int
	Rating      int
	GamesPlayed int
}

// Service computes rating changes for finished games
type Service struct {
	cfg Config
}

// New creates a new rating Service
func New(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// ComputeNewRatings treats a game as a round robin of pairwise matches.
// Each player's actual result against an opponent is their share of the pair's
// combined score (0.5 each when both scored nothing). The new rating is the old
// rating plus the average change over all opponents, truncated toward zero.
func (s *Service) ComputeNewRatings(participants []Participant) map[model.UserID]int {
	ratings := make(map[model.UserID]int, len(participants))

	for _, a := range participants {
		if len(participants) < 2 {
			ratings[a.UserID] = a.Rating
			continue
		}

		k := s.kFactor(a.GamesPlayed)
		var total float64
		for _, b := range participants {
			if a.UserID == b.UserID {
				continue
			}
			total += k * (actual(a.Score, b.Score) - s.expected(a.Rating, b.Rating))
		}

		average := total / float64(len(participants)-1)
		ratings[a.UserID] = int(float64(a.Rating) + average)
	}

	return ratings
}

// expected returns the probability that a player rated ra beats one rated rb
func (s *Service) expected(ra, rb int) float64 {
	return 1 / (1 + math.Pow(10, float64(rb-ra)/s.cfg.Divisor))
}

func actual(sa, sb int) float64 {
	if sa+sb == 0 {
		return 0.5
	}
	return float64(sa) / float64(sa+sb)
}

func (s *Service) kFactor(gamesPlayed int) float64 {
	if gamesPlayed < s.cfg.NewbieGames {
		return s.cfg.KFactorNewbie
	}
	return s.cfg.KFactorRegular
}
