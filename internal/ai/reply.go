package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/IshaanNene/NewsHound/internal/types"
)

var (
	// A label starts a line or follows a "," ";" or "|" separator, and may
	// carry list or emphasis markup: "- **Category:**".
	labelPattern = regexp.MustCompile(`(?im)(?:^|[,;|])[ \t*#>-]*(category|english[ \t]+title|synopsis|stakeholders)\b[ \t]*\**[ \t]*:`)
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

var errNoLabels = errors.New("reply contains no recognized labels")

// ParseReply turns a model reply into an Analysis.
//
// A reply that is a JSON object (optionally inside a code fence) is decoded
// strictly: unknown fields, trailing data or wrong types are errors.
// Anything else is scanned for "Category:", "English Title:", "Synopsis:"
// and "Stakeholders:" labels in any order. A label word inside running
// text is not a label. A value runs to the end of its line or to the next
// label; when a label repeats, the first value is kept. Missing labels leave the field empty and a
// missing or unrecognized category becomes types.CategoryUnknown.
func ParseReply(reply string) (types.Analysis, error) {
	text := strings.TrimSpace(reply)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if strings.HasPrefix(text, "{") {
		return parseJSONReply(text)
	}
	return parseLabeledReply(text)
}

type jsonReply struct {
	Category     string     `json:"category"`
	EnglishTitle string     `json:"english_title"`
	Synopsis     string     `json:"synopsis"`
	Stakeholders stringList `json:"stakeholders"`
}

// stringList accepts either a string or an array of strings.
type stringList string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringList(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("stakeholders: expected string or list of strings")
	}
	*s = stringList(strings.Join(many, ", "))
	return nil
}

func parseJSONReply(text string) (types.Analysis, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()

	var r jsonReply
	if err := dec.Decode(&r); err != nil {
		return types.Analysis{}, fmt.Errorf("decode reply: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return types.Analysis{}, fmt.Errorf("decode reply: trailing data after object")
	}

	return types.Analysis{
		Category:     types.ParseCategory(r.Category),
		EnglishTitle: strings.TrimSpace(r.EnglishTitle),
		Synopsis:     strings.TrimSpace(r.Synopsis),
		Stakeholders: strings.TrimSpace(string(r.Stakeholders)),
	}, nil
}

func parseLabeledReply(text string) (types.Analysis, error) {
	locs := labelPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return types.Analysis{}, errNoLabels
	}

	values := make(map[string]string, len(locs))
	for i, loc := range locs {
		label := strings.Join(strings.Fields(strings.ToLower(text[loc[2]:loc[3]])), " ")
		if _, seen := values[label]; seen {
			continue
		}

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		value := text[loc[1]:end]
		if nl := strings.IndexByte(value, '\n'); nl >= 0 {
			value = value[:nl]
		}
		values[label] = cleanValue(value)
	}

	return types.Analysis{
		Category:     types.ParseCategory(values["category"]),
		EnglishTitle: values["english title"],
		Synopsis:     values["synopsis"],
		Stakeholders: values["stakeholders"],
	}, nil
}

func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`\"' \t,;|")
	s = strings.TrimPrefix(s, "- ")
	return strings.TrimSpace(s)
}
