package pgvector

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

// whereBuilder accumulates AND-ed conditions with positional arguments
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *whereBuilder) sql() string {
	return strings.Join(w.conds, " AND ")
}

// haversineSQL is the great-circle distance in km from ($lat,$lon) to the row
const haversineSQL = `2 * %g * asin(least(1, sqrt(
	power(sin(radians(lat - %[2]s) / 2), 2) +
	cos(radians(%[2]s)) * cos(radians(lat)) * power(sin(radians(lon - %[3]s) / 2), 2))))`

// buildWhere translates an IndexFilter into a WHERE clause scoped to one
// collection. args holds the positional values in order, starting at $1 unless
// leading args are supplied. Rows with NULL periods never satisfy a period bound.
func buildWhere(collection string, f domain.IndexFilter, leading ...any) (string, []any) {
	w := &whereBuilder{args: append([]any(nil), leading...)}

	w.add("collection = " + w.arg(collection))

	if len(f.SiteTypes) > 0 {
		types := make([]string, len(f.SiteTypes))
		for i, t := range f.SiteTypes {
			types[i] = domain.NormalizeSiteType(t)
		}
		w.add("lower(site_type) = ANY(" + w.arg(pq.Array(types)) + ")")
	}
	if f.PeriodStartGTE != nil {
		w.add("period_start >= " + w.arg(*f.PeriodStartGTE))
	}
	if f.PeriodStartLTE != nil {
		w.add("period_start <= " + w.arg(*f.PeriodStartLTE))
	}
	if f.PeriodEndLTE != nil {
		w.add("period_end <= " + w.arg(*f.PeriodEndLTE))
	}
	if b := f.BBox; b != nil {
		w.add(fmt.Sprintf("lat BETWEEN %s AND %s", w.arg(b.MinLat), w.arg(b.MaxLat)))
		w.add(fmt.Sprintf("lon BETWEEN %s AND %s", w.arg(b.MinLon), w.arg(b.MaxLon)))
	}
	if g := f.Geo; g != nil {
		lat, lon := w.arg(g.Lat), w.arg(g.Lon)
		dist := fmt.Sprintf(haversineSQL, domain.EarthRadiusKm, lat, lon)
		w.add(dist + " <= " + w.arg(g.RadiusKm))
	}
	if f.CountryContains != "" {
		w.add("country ILIKE " + w.arg("%"+escapeLike(f.CountryContains)+"%"))
	}

	return w.sql(), w.args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
