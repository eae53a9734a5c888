package reader

import (
	"encoding/json"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/jo-room/job-scrape/internal/model"
)

// decodeJSON parses a captured response body into generic JSON values.
func decodeJSON(resp model.Response) (any, error) {
	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", resp.URL, err, model.ErrPageMismatch)
	}
	return data, nil
}

// isJSON reports whether resp declares a JSON content type.
func isJSON(resp model.Response) bool {
	ct := resp.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// searchString evaluates expr against data and renders a scalar result as a
// string. Missing values yield "".
func searchString(expr string, data any) (string, error) {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return "", fmt.Errorf("jmespath %q: %w", expr, err)
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return fmt.Sprint(t), nil
	}
}

// searchList evaluates expr against data and requires a list result.
func searchList(expr string, data any) ([]any, error) {
	v, err := jmespath.Search(expr, data)
	if err != nil {
		return nil, fmt.Errorf("jmespath %q: %w", expr, err)
	}
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jmespath %q: expected a list, got %T: %w", expr, v, model.ErrPageMismatch)
	}
	return list, nil
}

// validateExpr reports whether expr compiles. Empty expressions are valid.
func validateExpr(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

// parseDate tries layout, then RFC 3339.
func parseDate(value, layout string) (*time.Time, bool) {
	if value == "" {
		return nil, false
	}
	for _, l := range []string{layout, time.RFC3339} {
		if l == "" {
			continue
		}
		if t, err := time.Parse(l, value); err == nil {
			return &t, true
		}
	}
	return nil, false
}
