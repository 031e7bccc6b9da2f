package chord

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chibicitiberiu/chordsheet-engine/model"
)

func TestParsesPlainMajor(t *testing.T) {
	sym, err := Parse("C", American)

	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(byte('C'), sym.Root.Letter)
	assert.Equal(model.Major, sym.Quality)
	assert.Equal(model.NoSeventh, sym.Seventh)
}

func TestParsesAccidentalsAndSevenths(t *testing.T) {
	cases := []struct {
		token   string
		letter  byte
		acc     model.Accidental
		quality model.Quality
		seventh model.Seventh
	}{
		{"C#m7", 'C', model.Sharp, model.Minor, model.Min7},
		{"Bb7", 'B', model.Flat, model.Major, model.Dom7},
		{"Fmaj7", 'F', model.Natural, model.Major, model.Maj7},
		{"FM7", 'F', model.Natural, model.Major, model.Maj7},
		{"G#dim7", 'G', model.Sharp, model.Dim, model.Dim7},
		{"Am(maj7)", 'A', model.Natural, model.Minor, model.MinMaj7},
		{"AmM7", 'A', model.Natural, model.Minor, model.MinMaj7},
		{"Ddim", 'D', model.Natural, model.Dim, model.NoSeventh},
		{"D°", 'D', model.Natural, model.Dim, model.NoSeventh},
		{"D°7", 'D', model.Natural, model.Dim, model.Dim7},
		{"Eaug", 'E', model.Natural, model.Aug, model.NoSeventh},
		{"E+", 'E', model.Natural, model.Aug, model.NoSeventh},
		{"CΔ", 'C', model.Natural, model.Major, model.Maj7},
	}

	for _, c := range cases {
		name := fmt.Sprintf("test parse %v", c.token)
		t.Run(name, func(t *testing.T) {
			sym, err := Parse(c.token, American)

			assert := assert.New(t)
			assert.Nil(err)
			assert.Equal(c.letter, sym.Root.Letter)
			assert.Equal(c.acc, sym.Root.Accidental)
			assert.Equal(c.quality, sym.Quality)
			assert.Equal(c.seventh, sym.Seventh)
		})
	}
}

func TestSusDefaultsToSus4(t *testing.T) {
	sym, err := Parse("Gsus", American)

	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(model.Sus4, sym.Quality)

	sym2, err2 := Parse("Gsus2", American)
	assert.Nil(err2)
	assert.Equal(model.Sus2, sym2.Quality)
}

func TestHalfDiminishedSpellings(t *testing.T) {
	for _, token := range []string{"Cm7b5", "Cø", "Cø7"} {
		sym, err := Parse(token, American)

		assert := assert.New(t)
		assert.Nil(err, token)
		assert.Equal(model.HalfDim7, sym.Seventh, token)
	}
}

func TestExtensionsImplySevenths(t *testing.T) {
	cases := []struct {
		token   string
		seventh model.Seventh
		ext     model.Extension
	}{
		{"C9", model.Dom7, model.Ext9},
		{"C13", model.Dom7, model.Ext13},
		{"Cmaj9", model.Maj7, model.Ext9},
		{"Cm11", model.Min7, model.Ext11},
	}

	for _, c := range cases {
		sym, err := Parse(c.token, American)

		assert := assert.New(t)
		assert.Nil(err, c.token)
		assert.Equal(c.seventh, sym.Seventh, c.token)
		assert.Equal(c.ext, sym.Extension, c.token)
	}
}

func TestAddsAndAlterations(t *testing.T) {
	sym, err := Parse("Cadd9", American)
	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal([]int{9}, sym.AddNotes)
	assert.Equal(model.NoSeventh, sym.Seventh)

	sym, err = Parse("C7b5", American)
	assert.Nil(err)
	assert.Equal(model.Dom7, sym.Seventh)
	assert.Equal([]model.Alteration{{Degree: 5, Delta: -1}}, sym.Alterations)

	sym, err = Parse("Cmaj7#11", American)
	assert.Nil(err)
	assert.Equal(model.Maj7, sym.Seventh)
	assert.Equal([]model.Alteration{{Degree: 11, Delta: 1}}, sym.Alterations)
}

func TestSlashBassStripsSuffixes(t *testing.T) {
	sym, err := Parse("C/Em", American)

	assert := assert.New(t)
	assert.Nil(err)
	assert.NotNil(sym.Bass)
	assert.Equal(byte('E'), sym.Bass.Letter)
	assert.Equal(model.Natural, sym.Bass.Accidental)
}

func TestDurationSuffix(t *testing.T) {
	sym, err := Parse("C*1.5", American)

	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(1.5, sym.Beats)

	_, err = Parse("C*0", American)
	assert.Equal(model.BadDuration, err.Kind)
	_, err = Parse("C*x", American)
	assert.Equal(model.BadDuration, err.Kind)
}

func TestRestToken(t *testing.T) {
	sym, err := Parse("NC*2", American)

	assert := assert.New(t)
	assert.Nil(err)
	assert.True(sym.Rest)
	assert.Equal(2.0, sym.Beats)
}

func TestPowerChordTakesNothingElse(t *testing.T) {
	sym, err := Parse("A5", American)
	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(model.Power, sym.Quality)

	_, err = Parse("A57", American)
	assert.NotNil(err)
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		token string
		kind  model.ParseErrKind
	}{
		{"", model.EmptyToken},
		{"H", model.UnknownRoot},
		{"Cxyz", model.UnknownQuality},
		{"Cadd5", model.BadAlteration},
		{"Cb7#", model.BadAlteration},
		{"C/H", model.BadBass},
	}

	for _, c := range cases {
		_, err := Parse(c.token, American)

		assert := assert.New(t)
		assert.NotNil(err, c.token)
		assert.Equal(c.kind, err.Kind, c.token)
	}
}

func TestEuropeanRoots(t *testing.T) {
	cases := []struct {
		token  string
		letter byte
		acc    model.Accidental
	}{
		{"Do", 'C', model.Natural},
		{"Rem", 'D', model.Natural},
		{"Fa#7", 'F', model.Sharp},
		{"Solm7", 'G', model.Natural},
		{"Sib", 'B', model.Flat},
	}

	for _, c := range cases {
		sym, err := Parse(c.token, European)

		assert := assert.New(t)
		assert.Nil(err, c.token)
		assert.Equal(c.letter, sym.Root.Letter, c.token)
		assert.Equal(c.acc, sym.Root.Accidental, c.token)
	}

	_, err := Parse("C", European)
	assert.New(t).Equal(model.UnknownRoot, err.Kind)
}

func TestRomanNumerals(t *testing.T) {
	sym, err := Parse("vi", Roman)
	assert := assert.New(t)
	assert.Nil(err)
	assert.Equal(6, sym.Degree)
	assert.Equal(model.Minor, sym.Quality)

	sym, err = Parse("V7", Roman)
	assert.Nil(err)
	assert.Equal(5, sym.Degree)
	assert.Equal(model.Dom7, sym.Seventh)

	sym, err = Parse("vii°7", Roman)
	assert.Nil(err)
	assert.Equal(7, sym.Degree)
	assert.Equal(model.Dim, sym.Quality)
	assert.Equal(model.Dim7, sym.Seventh)

	sym, err = Parse("bIII", Roman)
	assert.Nil(err)
	assert.Equal(3, sym.Degree)
	assert.Equal(model.Flat, sym.DegreeAccidental)

	sym, err = Parse("vi/I", Roman)
	assert.Nil(err)
	assert.Equal(1, sym.BassDegree)
}

func TestRoundTripSerialization(t *testing.T) {
	tokens := []string{
		"C", "Cm", "C#m7", "Bb7", "Fmaj7", "G7b5", "Cm7b5", "Asus4",
		"Dsus2", "E5", "Caug", "Cdim7", "Cadd9", "C9", "Cmaj9", "Cm11",
		"C/E", "F#m7/B", "NC", "NC*2", "C*1.5", "Gmaj7add13#11",
	}

	for _, token := range tokens {
		name := fmt.Sprintf("test round trip for %v", token)
		t.Run(name, func(t *testing.T) {
			sym, err := Parse(token, American)
			if err != nil {
				t.Fatalf("did not parse: %v", err.Msg)
			}
			canonical := Serialize(sym)
			sym2, err2 := Parse(canonical, American)
			if err2 != nil {
				t.Fatalf("canonical form %q did not parse: %v", canonical, err2.Msg)
			}
			assert.New(t).Equal(sym, sym2)
		})
	}
}

func TestRomanRoundTripSerialization(t *testing.T) {
	for _, token := range []string{"I", "vi", "V7", "vii°7", "bIII", "IVmaj7", "vi/I", "#iv"} {
		sym, err := Parse(token, Roman)
		if err != nil {
			t.Fatalf("%v did not parse: %v", token, err.Msg)
		}
		canonical := Serialize(sym)
		sym2, err2 := Parse(canonical, Roman)
		if err2 != nil {
			t.Fatalf("canonical form %q did not parse: %v", canonical, err2.Msg)
		}
		assert.New(t).Equal(sym, sym2)
	}
}
