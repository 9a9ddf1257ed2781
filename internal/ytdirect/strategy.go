package ytdirect

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/catchpanic"
)

// StrategyFunc reads one payload or markup convention out of a page. A nil
// candidate with a nil error means the convention was not present.
type StrategyFunc func(l logrus.FieldLogger, p *Page) (*Candidate, error)

type Strategy struct {
	Name string
	Func StrategyFunc
}

// DefaultStrategies is ordered from the richest source to the most widely
// available one.
var DefaultStrategies = []Strategy{
	{Name: "player_response", Func: extractPlayerResponse},
	{Name: "initial_data", Func: extractInitialData},
	{Name: "meta_tags", Func: extractMetaTags},
}

// RunStrategies returns the first accepted candidate along with the name of
// the strategy that produced it. Strategy errors and panics are logged and
// never returned; running out of strategies returns ErrNoTitle.
func RunStrategies(l logrus.FieldLogger, p *Page, strategies []Strategy) (*Candidate, string, error) {
	for _, s := range strategies {
		sl := l.WithField("youtube.strategy", s.Name)

		c, err := catchpanic.CatchErr1(func() (*Candidate, error) { return s.Func(sl, p) })
		if err != nil {
			entry := sl.WithError(err)

			var pe *catchpanic.PanicError
			if errors.As(err, &pe) {
				entry = entry.WithField("youtube.panic_stack", pe.FormattedStack())
			}

			entry.Warn("extraction strategy failed")
			continue
		}

		if !c.Accepted() {
			sl.WithField("youtube.candidate", c.String()).Debug("extraction strategy found no title")
			continue
		}

		sl.WithField("youtube.candidate", c.String()).Debug("extraction strategy accepted")

		return c, s.Name, nil
	}

	return nil, "", fmt.Errorf("ytdirect.RunStrategies: tried %d strategies: %w", len(strategies), ErrNoTitle)
}

// rememberResults wraps each strategy so that it runs at most once; later
// calls return the first result.
func rememberResults(strategies []Strategy) []Strategy {
	a := make([]Strategy, len(strategies))
	for i, s := range strategies {
		s := s

		var (
			once sync.Once
			c    *Candidate
			err  error
		)

		a[i] = Strategy{Name: s.Name, Func: func(l logrus.FieldLogger, p *Page) (*Candidate, error) {
			once.Do(func() { c, err = s.Func(l, p) })
			return c, err
		}}
	}
	return a
}
