package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Unicode-aware equivalent of the usual (?u)\b\w\w+\b token pattern.
// Combining marks are not word characters, so decomposed accents split tokens.
const defaultTokenPattern = `[\p{L}\p{N}_]{2,}`

// Vector is a sparse feature row: feature index -> weight.
type Vector map[int]float64

type vectorizerFile struct {
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf"`
	Lowercase    *bool          `json:"lowercase"`
	NgramRange   [2]int         `json:"ngram_range"`
	SublinearTF  bool           `json:"sublinear_tf"`
	Norm         *string        `json:"norm"`
	TokenPattern string         `json:"token_pattern"`
	StripAccents *string        `json:"strip_accents"`
	StopWords    []string       `json:"stop_words"`
}

// Vectorizer maps raw text to TF-IDF weighted sparse rows.
type Vectorizer struct {
	vocab     map[string]int
	idf       []float64
	lowercase bool
	minN      int
	maxN      int
	sublinear bool
	norm      string
	token     *regexp.Regexp
	accents   string
	stop      map[string]struct{}
}

func ParseVectorizer(b []byte) (*Vectorizer, error) {
	var f vectorizerFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode vectorizer: %w", err)
	}
	if len(f.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer: empty vocabulary")
	}
	if len(f.IDF) != len(f.Vocabulary) {
		return nil, fmt.Errorf("vectorizer: %d idf weights for %d terms", len(f.IDF), len(f.Vocabulary))
	}
	for term, idx := range f.Vocabulary {
		if idx < 0 || idx >= len(f.IDF) {
			return nil, fmt.Errorf("vectorizer: term %q has out-of-range index %d", term, idx)
		}
	}

	v := &Vectorizer{
		vocab:     f.Vocabulary,
		idf:       f.IDF,
		lowercase: f.Lowercase == nil || *f.Lowercase,
		minN:      f.NgramRange[0],
		maxN:      f.NgramRange[1],
		sublinear: f.SublinearTF,
		norm:      "l2",
	}
	if v.minN <= 0 {
		v.minN = 1
	}
	if v.maxN < v.minN {
		v.maxN = v.minN
	}
	if f.Norm != nil {
		v.norm = strings.ToLower(*f.Norm)
	}
	switch v.norm {
	case "l1", "l2", "", "none":
	default:
		return nil, fmt.Errorf("vectorizer: unsupported norm %q", v.norm)
	}
	if f.StripAccents != nil {
		v.accents = strings.ToLower(*f.StripAccents)
	}
	switch v.accents {
	case "", "unicode", "ascii":
	default:
		return nil, fmt.Errorf("vectorizer: unsupported strip_accents %q", v.accents)
	}

	pattern := defaultTokenPattern
	if p := strings.TrimPrefix(f.TokenPattern, "(?u)"); p != "" && p != `\b\w\w+\b` {
		pattern = p
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("vectorizer: token pattern: %w", err)
	}
	v.token = re

	if len(f.StopWords) > 0 {
		v.stop = make(map[string]struct{}, len(f.StopWords))
		for _, w := range f.StopWords {
			v.stop[w] = struct{}{}
		}
	}
	return v, nil
}

func (v *Vectorizer) Features() int { return len(v.idf) }

func (v *Vectorizer) Transform(docs []string) []Vector {
	out := make([]Vector, len(docs))
	for i, d := range docs {
		out[i] = v.transformOne(d)
	}
	return out
}

func (v *Vectorizer) transformOne(doc string) Vector {
	row := Vector{}
	for _, term := range v.analyze(doc) {
		if idx, ok := v.vocab[term]; ok {
			row[idx]++
		}
	}
	for idx, tf := range row {
		if v.sublinear {
			tf = 1 + math.Log(tf)
		}
		row[idx] = tf * v.idf[idx]
	}
	v.normalize(row)
	return row
}

func (v *Vectorizer) normalize(row Vector) {
	var n float64
	switch v.norm {
	case "l2":
		for _, w := range row {
			n += w * w
		}
		n = math.Sqrt(n)
	case "l1":
		for _, w := range row {
			n += math.Abs(w)
		}
	default:
		return
	}
	if n == 0 {
		return
	}
	for idx := range row {
		row[idx] /= n
	}
}

// analyze runs preprocessing, tokenization, stop-word removal and n-gram expansion.
func (v *Vectorizer) analyze(doc string) []string {
	doc = stripAccents(doc, v.accents)
	if v.lowercase {
		doc = strings.ToLower(doc)
	}
	toks := v.token.FindAllString(doc, -1)
	if v.stop != nil {
		kept := toks[:0]
		for _, t := range toks {
			if _, ok := v.stop[t]; !ok {
				kept = append(kept, t)
			}
		}
		toks = kept
	}
	if v.maxN == 1 {
		return toks
	}

	terms := make([]string, 0, len(toks)*(v.maxN-v.minN+1))
	if v.minN == 1 {
		terms = append(terms, toks...)
	}
	for n := max(v.minN, 2); n <= v.maxN; n++ {
		for i := 0; i+n <= len(toks); i++ {
			terms = append(terms, strings.Join(toks[i:i+n], " "))
		}
	}
	return terms
}

func stripAccents(s, mode string) string {
	var t transform.Transformer
	switch mode {
	case "unicode":
		t = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	case "ascii":
		t = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })))
	default:
		return s
	}
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
