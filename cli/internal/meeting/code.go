package meeting

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
)

var ErrEmptyCode = errors.New("meeting code cannot be empty")

// NewCode returns a memorable code such as "kitten-waffle-stardust-happy".
// Four pools are picked without replacement and one word is drawn from each.
func NewCode() string {
	words := lo.Map(lo.Samples(pools, 4), func(pool []string, _ int) string {
		return lo.Sample(pool)
	})
	return strings.Join(words, "-")
}

// ParseCode accepts either a bare code or a meeting link and returns the code.
func ParseCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyCode
	}
	if !strings.Contains(input, "://") {
		return strings.Trim(input, "/"), nil
	}

	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("parse meeting link: %w", err)
	}
	parts := lo.Compact(strings.Split(u.Path, "/"))
	if len(parts) == 0 {
		return "", fmt.Errorf("no meeting code in %s", input)
	}
	return parts[len(parts)-1], nil
}
