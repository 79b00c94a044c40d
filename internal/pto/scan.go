// Package pto scans Hugin panorama project files.
//
// The scan is syntactic: every line starting with an accepted header letter is
// split into tagged members whose values are typed by their shape (float,
// integer, rectangle, back reference, quoted string or bare word). What a
// member means is left to the caller.
package pto

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// StandardHeaders are the line headers defined by the pto format.
const StandardHeaders = "pvimozck"

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// value alternatives shared by all line flavours; order matters.
const (
	floatRe  = `(?P<float>[+-]?(?:\d+[.]\d*|[.]\d+))`
	rectRe   = `(?P<rect>([+-]?\d+),([+-]?\d+),([+-]?\d+),([+-]?\d+))`
	intRe    = `(?P<int>[+-]?\d+)`
	backRe   = `(?P<backref>=\d+)`
	stringRe = `(?P<string>"(?:[^"]|\\")*")`
	wordRe   = `(?P<word>\S+)`
)

var (
	memberRe = regexp.MustCompile(`\s*(?P<tag>R[a-e]|V[a-dxym]|T[xyzrs][XYZ]*|E[rb]|Eev|[A-Za-z])` +
		`(?P<text>` + floatRe + `|` + rectRe + `|` + intRe + `|` + backRe + `|` + stringRe + `|` + wordRe + `)`)
	keyValueRe = regexp.MustCompile(`\s*(?P<tag>[^=\s]+)=` +
		`(?P<text>` + floatRe + `|` + intRe + `|` + stringRe + `|` + wordRe + `)`)
	imgfileRe = regexp.MustCompile(`\s*` +
		`(?P<text>` + floatRe + `|` + intRe + `|` + stringRe + `|` + wordRe + `)`)

	huginExtRe    = regexp.MustCompile(`^#-hugin`)
	huginOptionRe = regexp.MustCompile(`^#hugin_\S+`)
	imgfileExtRe  = regexp.MustCompile(`^#-imgfile`)
)

// Scanner controls which lines are scanned for members.
// The zero value accepts any letter as a header and scans extensions.
type Scanner struct {
	Headers        string // accepted line headers; empty means all ASCII letters
	SkipExtensions bool   // keep '#' extension lines as plain comments
}

// Scan reads a pto file with the default Scanner.
func Scan(r io.Reader) (*File, error) {
	return Scanner{}.Scan(r)
}

// ScanFile opens and scans the pto file at path.
func ScanFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pto: open %s: %w", path, err)
	}
	defer f.Close()

	pf, err := Scan(f)
	if err != nil {
		return nil, fmt.Errorf("pto: scan %s: %w", path, err)
	}
	pf.Name = path
	return pf, nil
}

// Scan reads all lines from r. Lines after a '*' line are kept verbatim.
func (s Scanner) Scan(r io.Reader) (*File, error) {
	headers := s.Headers
	if headers == "" {
		headers = letters
	}
	f := &File{Headers: headers, Extensions: !s.SkipExtensions}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := -1
	stopped := false
	for sc.Scan() {
		lineNo++
		text := decodeLine(sc.Text())
		if stopped {
			f.Lines = append(f.Lines, plainLine(text, lineNo, ""))
			continue
		}

		var first string
		if text != "" {
			first = text[:1]
		}

		switch {
		case first != "" && strings.Contains(headers, first):
			f.Lines = append(f.Lines, scanMembers(text, lineNo))
		case first == "#" && !s.SkipExtensions:
			f.Lines = append(f.Lines, scanComment(text, lineNo))
		case first == "#":
			f.Lines = append(f.Lines, plainLine(text, lineNo, "#"))
		case first == "*":
			f.Lines = append(f.Lines, plainLine(text, lineNo, "*"))
			stopped = true
		default:
			f.Lines = append(f.Lines, plainLine(text, lineNo, ""))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("pto: read line %d: %w", lineNo+1, err)
	}
	return f, nil
}

// decodeLine reads lines that are not valid UTF-8 as Windows-1252, which is
// what older Hugin builds on Windows write image paths in.
func decodeLine(text string) string {
	if utf8.ValidString(text) {
		return text
	}
	decoded, err := charmap.Windows1252.NewDecoder().String(text)
	if err != nil {
		return text
	}
	return decoded
}

func plainLine(text string, no int, header string) *Line {
	return &Line{No: no, Header: header, Source: text}
}

func scanMembers(text string, no int) *Line {
	l := &Line{No: no, Header: text[:1], Source: text, Scanned: true}
	rest := text[1:]
	for _, sub := range memberRe.FindAllStringSubmatch(rest, -1) {
		l.Members = append(l.Members, typedMember(memberRe, sub, ""))
	}
	return l
}

func scanComment(text string, no int) *Line {
	switch {
	case huginExtRe.MatchString(text):
		l := &Line{No: no, Header: "#-hugin", Source: text, Scanned: true}
		for _, sub := range keyValueRe.FindAllStringSubmatch(text[len(l.Header):], -1) {
			l.Members = append(l.Members, typedMember(keyValueRe, sub, "="))
		}
		return l

	case huginOptionRe.MatchString(text):
		header := huginOptionRe.FindString(text)
		l := &Line{No: no, Header: header, Source: text, Scanned: true}
		trimmed := strings.TrimSpace(text)
		if len(trimmed) > len(header)+1 {
			v := trimmed[len(header)+1:]
			l.Members = append(l.Members, Member{Text: v, Kind: Word, Str: v})
		}
		return l

	case imgfileExtRe.MatchString(text):
		l := &Line{No: no, Header: "#-imgfile", Source: text, Scanned: true}
		for _, sub := range imgfileRe.FindAllStringSubmatch(text[len(l.Header):], -1) {
			l.Members = append(l.Members, typedMember(imgfileRe, sub, ""))
		}
		return l
	}
	return plainLine(text, no, "#")
}

// typedMember builds a Member from one regexp match. The first alternative
// group that matched decides the kind.
func typedMember(re *regexp.Regexp, sub []string, sep string) Member {
	group := func(name string) string {
		if i := re.SubexpIndex(name); i >= 0 {
			return sub[i]
		}
		return ""
	}

	m := Member{Tag: group("tag"), Sep: sep, Text: group("text")}
	switch {
	case group("float") != "":
		m.Kind = Float
		m.Num, _ = strconv.ParseFloat(group("float"), 64)
	case group("rect") != "":
		m.Kind = Rect
		base := re.SubexpIndex("rect")
		for k := 0; k < 4; k++ {
			m.Rect[k], _ = strconv.Atoi(sub[base+1+k])
		}
	case group("int") != "":
		m.Kind = Int
		n, _ := strconv.Atoi(group("int"))
		m.Num = float64(n)
	case group("backref") != "":
		m.Kind = BackRef
		m.Sep = "="
		m.Text = m.Text[1:]
		n, _ := strconv.Atoi(m.Text)
		m.Num = float64(n)
	case group("string") != "":
		m.Kind = String
		s := group("string")
		m.Str = s[1 : len(s)-1]
	default:
		m.Kind = Word
		m.Str = group("word")
	}
	return m
}
