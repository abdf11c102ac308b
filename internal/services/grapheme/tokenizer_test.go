package grapheme

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/connectaword/internal/model"
)

type TokenizerSuite struct {
	suite.Suite
}

func TestTokenizerSuite(t *testing.T) {
	suite.Run(t, new(TokenizerSuite))
}

func (s *TokenizerSuite) TestEnglishSplitsPerLetter() {
	s.Equal([]string{"C", "R", "A", "N", "E"}, Tokenize("crane", model.LanguageEnglish))
}

func (s *TokenizerSuite) TestEnglishDoesNotMergeDigraphs() {
	s.Equal([]string{"N", "J", "A"}, Tokenize("nja", model.LanguageEnglish))
}

func (s *TokenizerSuite) TestSerbianDigraphs() {
	s.Equal([]string{"LJ", "U", "B", "A", "V"}, Tokenize("ljubav", model.LanguageSerbian))
	s.Equal([]string{"NJ", "I", "V", "A"}, Tokenize("NJIVA", model.LanguageSerbian))
	s.Equal([]string{"DŽ", "E", "P"}, Tokenize("džep", model.LanguageSerbian))
}

func (s *TokenizerSuite) TestSerbianMixedCase() {
	s.Equal([]string{"DŽ", "E", "P"}, Tokenize("Džep", model.LanguageSerbian))
	s.Equal([]string{"K", "O", "NJ"}, Tokenize("koNj", model.LanguageSerbian))
}

func (s *TokenizerSuite) TestSerbianDecomposedInputIsNormalized() {
	// z followed by a combining caron
	decomposed := "dz\u030cep"
	s.Equal([]string{"DŽ", "E", "P"}, Tokenize(decomposed, model.LanguageSerbian))
}

func (s *TokenizerSuite) TestSerbianDiacriticLettersAreSingleUnits() {
	s.Equal([]string{"Č", "A", "Š", "A"}, Tokenize("čaša", model.LanguageSerbian))
	s.Equal([]string{"Đ", "A", "K"}, Tokenize("đak", model.LanguageSerbian))
}

func (s *TokenizerSuite) TestEmptyWord() {
	s.Empty(Tokenize("", model.LanguageSerbian))
	s.Equal(0, VisualLength("  ", model.LanguageEnglish))
}

func (s *TokenizerSuite) TestRoundTripAndLength() {
	words := []string{"ljubav", "džungla", "konj", "njiva", "čaša", "apple", "Pesma", "nadživeti"}
	for _, lang := range model.SupportedLanguages {
		for _, w := range words {
			tokens := Tokenize(w, lang)
			s.Equal(Normalize(w), Join(tokens), "round trip %q (%s)", w, lang)
			s.Equal(len(tokens), VisualLength(w, lang), "length %q (%s)", w, lang)
		}
	}
}

func (s *TokenizerSuite) TestVisualLength() {
	s.Equal(5, VisualLength("ljubav", model.LanguageSerbian))
	s.Equal(6, VisualLength("ljubav", model.LanguageEnglish))
	s.Equal(6, VisualLength("džungla", model.LanguageSerbian))
}

func (s *TokenizerSuite) TestIsConsonant() {
	s.True(IsConsonant("B", model.LanguageEnglish))
	s.False(IsConsonant("A", model.LanguageEnglish))
	s.False(IsConsonant("LJ", model.LanguageEnglish))
	s.True(IsConsonant("LJ", model.LanguageSerbian))
	s.True(IsConsonant("DŽ", model.LanguageSerbian))
	s.True(IsConsonant("Ž", model.LanguageSerbian))
	s.False(IsConsonant("E", model.LanguageSerbian))
}
