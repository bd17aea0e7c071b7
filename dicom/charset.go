package dicom

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// CharacterSet maps a Specific Character Set defined term to a text encoding.
type CharacterSet struct {
	Name        string
	Description string
	Encoding    encoding.Encoding
}

// DefaultCharacterSet is the repertoire used when (0008,0005) is absent.
var DefaultCharacterSet = &CharacterSet{Name: "ISO_IR 6", Description: "Default repertoire"}

var characterSets = map[string]*CharacterSet{
	"":                DefaultCharacterSet,
	"ISO_IR 6":        DefaultCharacterSet,
	"ISO_IR 13":       {Name: "ISO_IR 13", Description: "Japanese", Encoding: japanese.ShiftJIS},
	"ISO_IR 100":      {Name: "ISO_IR 100", Description: "Latin alphabet No. 1", Encoding: charmap.ISO8859_1},
	"ISO_IR 101":      {Name: "ISO_IR 101", Description: "Latin alphabet No. 2", Encoding: charmap.ISO8859_2},
	"ISO_IR 109":      {Name: "ISO_IR 109", Description: "Latin alphabet No. 3", Encoding: charmap.ISO8859_3},
	"ISO_IR 110":      {Name: "ISO_IR 110", Description: "Latin alphabet No. 4", Encoding: charmap.ISO8859_4},
	"ISO_IR 126":      {Name: "ISO_IR 126", Description: "Greek", Encoding: charmap.ISO8859_7},
	"ISO_IR 127":      {Name: "ISO_IR 127", Description: "Arabic", Encoding: charmap.ISO8859_6},
	"ISO_IR 138":      {Name: "ISO_IR 138", Description: "Hebrew", Encoding: charmap.ISO8859_8},
	"ISO_IR 144":      {Name: "ISO_IR 144", Description: "Cyrillic", Encoding: charmap.ISO8859_5},
	"ISO_IR 148":      {Name: "ISO_IR 148", Description: "Latin alphabet No. 5", Encoding: charmap.ISO8859_9},
	"ISO_IR 166":      {Name: "ISO_IR 166", Description: "Thai", Encoding: charmap.Windows874},
	"ISO_IR 192":      {Name: "ISO_IR 192", Description: "Unicode in UTF-8", Encoding: unicode.UTF8},
	"ISO 2022 IR 87":  {Name: "ISO 2022 IR 87", Description: "Japanese (Kanji)", Encoding: japanese.ISO2022JP},
	"ISO 2022 IR 100": {Name: "ISO 2022 IR 100", Description: "Latin alphabet No. 1", Encoding: charmap.ISO8859_1},
	"ISO 2022 IR 149": {Name: "ISO 2022 IR 149", Description: "Korean", Encoding: korean.EUCKR},
	"GB18030":         {Name: "GB18030", Description: "Chinese (Simplified)", Encoding: simplifiedchinese.GB18030},
	"GBK":             {Name: "GBK", Description: "Chinese (Simplified)", Encoding: simplifiedchinese.GBK},
}

// LookupCharacterSet returns the character set for a (0008,0005) value.
// Multi-valued terms use the first value. Unknown terms report false.
func LookupCharacterSet(term string) (*CharacterSet, bool) {
	if i := strings.IndexByte(term, '\\'); i >= 0 {
		term = term[:i]
	}
	cs, ok := characterSets[strings.TrimSpace(term)]
	return cs, ok
}

// Decode converts raw attribute bytes to a UTF-8 string.
func (cs *CharacterSet) Decode(raw []byte) (string, error) {
	if cs == nil || cs.Encoding == nil {
		return string(raw), nil
	}
	out, err := cs.Encoding.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
