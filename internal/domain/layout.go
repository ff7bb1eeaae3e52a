package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// PathTemplate is a URL or path pattern with time placeholders:
//
//	{yyyy} {mm} {dd} {HH} {MI} {SS}
//	{date}    20060102
//	{stamp}   20060102-150405
//	{compact} 20060102150405
//
// Placeholders are used instead of Go time layouts because upstream names
// contain digit runs ("2D", "00.00") that the layout parser would consume.
type PathTemplate string

// Expand renders the template for t in loc. A nil loc means UTC.
func (p PathTemplate) Expand(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	r := strings.NewReplacer(
		"{yyyy}", fmt.Sprintf("%04d", t.Year()),
		"{mm}", fmt.Sprintf("%02d", int(t.Month())),
		"{dd}", fmt.Sprintf("%02d", t.Day()),
		"{HH}", fmt.Sprintf("%02d", t.Hour()),
		"{MI}", fmt.Sprintf("%02d", t.Minute()),
		"{SS}", fmt.Sprintf("%02d", t.Second()),
		"{date}", t.Format("20060102"),
		"{stamp}", t.Format("20060102-150405"),
		"{compact}", t.Format("20060102150405"),
	)
	return r.Replace(string(p))
}

// Layout maps instants of one source to directories in the artifact store.
type Layout struct {
	Base     string
	Source   string // e.g. "mrms"
	Org      string // e.g. "ncep"
	Product  string // e.g. "PrecipRate"
	Location *time.Location
}

// Validate reports missing layout components.
func (l Layout) Validate() error {
	if l.Base == "" || l.Source == "" || l.Org == "" || l.Product == "" {
		return fmt.Errorf("%w: layout needs base, source, org and product tags", ErrInvalidConfiguration)
	}
	return nil
}

// Dir returns <base>/<yyyy>/<mm>/<dd>/<source>/<org>/<product> for t.
func (l Layout) Dir(t time.Time) string {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return filepath.Join(l.Base,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		l.Source, l.Org, l.Product)
}

// Path returns the artifact key: the file named by the expanded template in Dir(t).
func (l Layout) Path(t time.Time, filename PathTemplate) string {
	return filepath.Join(l.Dir(t), filename.Expand(t, l.Location))
}
