package validation

import (
	"errors"
	"fmt"
	"strings"

	"msgdrop/pkg/models"
)

// Rules bounds what the API accepts before anything reaches the store.
type Rules struct {
	MaxTextLen   int
	MaxAuthorLen int
	Kinds        []string
}

var rules = Rules{
	MaxTextLen:   4000,
	MaxAuthorLen: 64,
	Kinds:        []string{models.KindText, models.KindImage, models.KindGif},
}

// SetRules replaces the active rule set (called once at startup).
func SetRules(r Rules) {
	if r.MaxTextLen > 0 {
		rules.MaxTextLen = r.MaxTextLen
	}
	if r.MaxAuthorLen > 0 {
		rules.MaxAuthorLen = r.MaxAuthorLen
	}
	if len(r.Kinds) > 0 {
		rules.Kinds = r.Kinds
	}
}

// ValidateMessage checks shape limits on an inbound message. A failure maps
// to InvalidArgument at the API layer.
func ValidateMessage(m models.Message) error {
	var errs []string
	if m.Kind != "" && !contains(rules.Kinds, m.Kind) {
		errs = append(errs, fmt.Sprintf("unknown message kind: %s", m.Kind))
	}
	if len(m.Text) > rules.MaxTextLen {
		errs = append(errs, fmt.Sprintf("text too long: %d > %d", len(m.Text), rules.MaxTextLen))
	}
	if len(m.Author) > rules.MaxAuthorLen {
		errs = append(errs, fmt.Sprintf("author too long: %d > %d", len(m.Author), rules.MaxAuthorLen))
	}
	if m.Kind == models.KindGif && (m.Gif == nil || m.Gif.URL == "") {
		errs = append(errs, "gif message requires gif.url")
	}
	if m.Kind == models.KindText && strings.TrimSpace(m.Text) == "" && m.BlobID == "" {
		errs = append(errs, "text message requires text")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
