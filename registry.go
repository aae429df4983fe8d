package kernelfx

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// ErrUnknownFilter is returned by NewFilter for names nobody registered.
var ErrUnknownFilter = errors.New("kernelfx: unknown filter")

// FilterFactory creates a filter from optional settings. Keys a factory
// does not understand are ignored.
type FilterFactory func(settings Settings) (Filter, error)

// Settings holds per-filter configuration, as read from a config file.
type Settings map[string]any

// Int returns settings[key] as an int, or def when it is absent.
func (s Settings) Int(key string, def int) (int, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%s: %v is not an integer", key, n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s: want integer, got %T", key, v)
	}
}

// Float returns settings[key] as a float64, or def when it is absent.
func (s Settings) Float(key string, def float64) (float64, error) {
	v, ok := s[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%s: want number, got %T", key, v)
	}
}

var (
	filtersMu sync.RWMutex
	filters   = map[string]FilterFactory{
		"sobel":   func(Settings) (Filter, error) { return Sobel{}, nil },
		"prewitt": func(Settings) (Filter, error) { return Prewitt{}, nil },
		"canny":   func(Settings) (Filter, error) { return Canny{}, nil },
		"sharpen": func(Settings) (Filter, error) { return Sharpen{}, nil },
		"blur":    newBlurFromSettings,
		"dither":  newDitherFromSettings,
	}
)

func newBlurFromSettings(s Settings) (Filter, error) {
	size, err := s.Int("size", DefaultBlurSize)
	if err != nil {
		return nil, err
	}
	sigma, err := s.Float("sigma", DefaultBlurSigma)
	if err != nil {
		return nil, err
	}
	if size < 1 || sigma <= 0 {
		return nil, fmt.Errorf("blur: size %d and sigma %v must be positive", size, sigma)
	}
	return NewGaussianBlur(size, sigma), nil
}

func newDitherFromSettings(s Settings) (Filter, error) {
	size, err := s.Int("size", DefaultDitherSize)
	if err != nil {
		return nil, err
	}
	if !slices.Contains([]int{2, 4, 8}, size) {
		return nil, fmt.Errorf("dither: size %d, want 2, 4 or 8", size)
	}
	return Dither{Size: size}, nil
}

// RegisterFilter adds or replaces a named filter factory.
func RegisterFilter(name string, factory FilterFactory) {
	filtersMu.Lock()
	defer filtersMu.Unlock()
	filters[strings.ToLower(name)] = factory
}

// FilterNames returns the registered filter names, sorted.
func FilterNames() []string {
	filtersMu.RLock()
	defer filtersMu.RUnlock()
	names := lo.Keys(filters)
	slices.Sort(names)
	return names
}

// NewFilter creates the named filter. Names are case-insensitive.
func NewFilter(name string, settings Settings) (Filter, error) {
	filtersMu.RLock()
	factory, ok := filters[strings.ToLower(strings.TrimSpace(name))]
	filtersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownFilter, name, strings.Join(FilterNames(), ", "))
	}
	f, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("kernelfx: filter %s: %w", name, err)
	}
	return f, nil
}

// ParseFilters creates filters from a comma-separated list such as
// "sobel, blur,dither". Empty items and duplicates are dropped; order is
// kept.
func ParseFilters(list string, settings map[string]Settings) ([]Filter, error) {
	names := lo.Uniq(lo.Compact(lo.Map(strings.Split(list, ","), func(s string, _ int) string {
		return strings.ToLower(strings.TrimSpace(s))
	})))
	out := make([]Filter, 0, len(names))
	for _, name := range names {
		f, err := NewFilter(name, settings[name])
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
