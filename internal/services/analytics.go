package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"

	"github.com/shopspring/decimal"
)

type Granularity string

const (
	ByHour  Granularity = "hour"
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case "":
		return ByHour, nil
	case ByHour, ByDay, ByWeek, ByMonth, ByYear:
		return g, nil
	}
	return "", domain.Invalid("granularity", fmt.Sprintf("must be one of hour, day, week, month, year; got %q", s))
}

type unit int

const (
	unitHour unit = iota
	unitDay
	unitMonth
)

// layout describes the window and bucketing for one granularity.
type layout struct {
	windowStart func(t time.Time) time.Time
	windowNext  func(start time.Time) time.Time
	bucket      unit
	label       string
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

var weekLayout = layout{
	windowStart: startOfWeek,
	windowNext:  func(s time.Time) time.Time { return s.AddDate(0, 0, 7) },
	bucket:      unitDay,
	label:       "Mon",
}

var layouts = map[Granularity]layout{
	ByHour: {
		windowStart: startOfDay,
		windowNext:  func(s time.Time) time.Time { return s.AddDate(0, 0, 1) },
		bucket:      unitHour,
		label:       "15:00",
	},
	ByDay:  weekLayout,
	ByWeek: weekLayout,
	ByMonth: {
		windowStart: startOfMonth,
		windowNext:  func(s time.Time) time.Time { return s.AddDate(0, 1, 0) },
		bucket:      unitDay,
		label:       "02",
	},
	ByYear: {
		windowStart: startOfYear,
		windowNext:  func(s time.Time) time.Time { return s.AddDate(1, 0, 0) },
		bucket:      unitMonth,
		label:       "Jan",
	},
}

func truncate(t time.Time, u unit) time.Time {
	y, m, d := t.Date()
	switch u {
	case unitHour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
	case unitDay:
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	}
}

func step(t time.Time, u unit) time.Time {
	switch u {
	case unitHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour()+1, 0, 0, 0, t.Location())
	case unitDay:
		return t.AddDate(0, 0, 1)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Window returns the inclusive reporting window for g around now.
func Window(g Granularity, now time.Time, loc *time.Location) (start, end time.Time) {
	l, ok := layouts[g]
	if !ok {
		l = layouts[ByHour]
	}
	if loc == nil {
		loc = time.Local
	}
	start = l.windowStart(now.In(loc))
	end = l.windowNext(start).Add(-time.Nanosecond)
	return start, end
}

type Bucket struct {
	Label      string          `json:"label"`
	Start      time.Time       `json:"start"`
	OrderCount int             `json:"orderCount"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type StatusCount struct {
	Status domain.OrderStatus `json:"status"`
	Count  int                `json:"count"`
}

// Report is one aggregation window. AverageOrderValue is TotalRevenue /
// PaidOrders rounded half away from zero to cents, and zero when nothing is paid.
type Report struct {
	Granularity       Granularity     `json:"granularity"`
	WindowStart       time.Time       `json:"windowStart"`
	WindowEnd         time.Time       `json:"windowEnd"`
	Series            []Bucket        `json:"series"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int             `json:"totalOrders"`
	PaidOrders        int             `json:"paidOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	// StatusCounts holds every status, zeros included.
	StatusCounts    []StatusCount `json:"-"`
	StatusBreakdown []StatusCount `json:"statusBreakdown"`
}

// Aggregate rolls orders up into a dense bucket series for the window of g
// around now. It does not mutate orders.
func Aggregate(orders []domain.Order, g Granularity, now time.Time, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	l, ok := layouts[g]
	if !ok {
		g, l = ByHour, layouts[ByHour]
	}
	start, end := Window(g, now, loc)
	next := end.Add(time.Nanosecond)

	rep := Report{
		Granularity:  g,
		WindowStart:  start,
		WindowEnd:    end,
		Series:       []Bucket{},
		TotalRevenue: decimal.Zero,
	}
	index := map[int64]int{}
	for b := start; b.Before(next); b = step(b, l.bucket) {
		index[b.Unix()] = len(rep.Series)
		rep.Series = append(rep.Series, Bucket{Label: b.Format(l.label), Start: b, Revenue: decimal.Zero})
	}

	counts := map[domain.OrderStatus]int{}
	for _, o := range orders {
		at := o.CreatedAt.In(loc)
		if at.Before(start) || at.After(end) {
			continue
		}
		rep.TotalOrders++
		counts[o.Status]++
		paid := o.PaymentStatus == domain.PaymentPaid
		if paid {
			rep.PaidOrders++
			rep.TotalRevenue = rep.TotalRevenue.Add(o.TotalAmount)
		}
		i, ok := index[truncate(at, l.bucket).Unix()]
		if !ok {
			continue
		}
		rep.Series[i].OrderCount++
		if paid {
			rep.Series[i].Revenue = rep.Series[i].Revenue.Add(o.TotalAmount)
		}
	}

	rep.AverageOrderValue = decimal.Zero
	if rep.PaidOrders > 0 {
		rep.AverageOrderValue = rep.TotalRevenue.Div(decimal.NewFromInt(int64(rep.PaidOrders))).Round(2)
	}

	rep.StatusBreakdown = []StatusCount{}
	for _, s := range domain.Statuses {
		sc := StatusCount{Status: s, Count: counts[s]}
		rep.StatusCounts = append(rep.StatusCounts, sc)
		if sc.Count > 0 {
			rep.StatusBreakdown = append(rep.StatusBreakdown, sc)
		}
	}
	return rep
}

type DaySales struct {
	Date   string          `json:"date"`
	Sales  decimal.Decimal `json:"sales"`
	Orders int             `json:"orders"`
}

type SalesSummary struct {
	TotalSales        decimal.Decimal `json:"totalSales"`
	TotalOrders       int             `json:"totalOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	SalesByDay        []DaySales      `json:"salesByDay"`
}

// SummarizeCompleted is the older dashboard view: completed orders only,
// grouped by UTC calendar date, days without sales omitted.
func SummarizeCompleted(orders []domain.Order) SalesSummary {
	sum := SalesSummary{TotalSales: decimal.Zero, AverageOrderValue: decimal.Zero, SalesByDay: []DaySales{}}
	byDay := map[string]*DaySales{}
	for _, o := range orders {
		if o.Status != domain.StatusCompleted {
			continue
		}
		sum.TotalOrders++
		sum.TotalSales = sum.TotalSales.Add(o.TotalAmount)
		key := o.CreatedAt.UTC().Format("2006-01-02")
		d, ok := byDay[key]
		if !ok {
			d = &DaySales{Date: key, Sales: decimal.Zero}
			byDay[key] = d
		}
		d.Sales = d.Sales.Add(o.TotalAmount)
		d.Orders++
	}
	if sum.TotalOrders > 0 {
		sum.AverageOrderValue = sum.TotalSales.Div(decimal.NewFromInt(int64(sum.TotalOrders))).Round(2)
	}
	for _, d := range byDay {
		sum.SalesByDay = append(sum.SalesByDay, *d)
	}
	sort.Slice(sum.SalesByDay, func(i, j int) bool { return sum.SalesByDay[i].Date < sum.SalesByDay[j].Date })
	return sum
}

type AnalyticsService struct {
	Orders *repos.OrderRepo
	Now    func() time.Time
	Loc    *time.Location
}

func NewAnalyticsService(orders *repos.OrderRepo, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{Orders: orders, Now: time.Now, Loc: loc}
}

// Report loads the orders of the current window and aggregates them.
func (s *AnalyticsService) Report(ctx context.Context, g Granularity) (Report, error) {
	now := s.Now()
	start, end := Window(g, now, s.Loc)
	orders, err := s.Orders.ListCreatedBetween(ctx, start, end)
	if err != nil {
		return Report{}, domain.Persist("list orders", err)
	}
	return Aggregate(orders, g, now, s.Loc), nil
}

// Summary aggregates completed orders created in [from, to]; zero bounds are open.
func (s *AnalyticsService) Summary(ctx context.Context, from, to time.Time) (SalesSummary, error) {
	orders, err := s.Orders.List(ctx, repos.OrderFilter{From: from, To: to})
	if err != nil {
		return SalesSummary{}, domain.Persist("list orders", err)
	}
	return SummarizeCompleted(orders), nil
}
