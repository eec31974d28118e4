// Package pricing переводит баллы результатов (deliverables) в часы и стоимость спринта.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

const (
	HoursPerPoint = 15.0
	BaseFee       = 5000.0
	PricePerPoint = 2500.0
)

// ErrNonFinite возвращают вызывающие, когда результат NaN/Inf нельзя сохранять в БД
var ErrNonFinite = errors.New("pricing result is not finite")

// LineItem - одна позиция расчета, все значения по умолчанию уже подставлены
type LineItem struct {
	BasePoints      float64
	Quantity        float64
	ComplexityScore float64
}

// EffectivePoints = BasePoints × Quantity × ComplexityScore
func (i LineItem) EffectivePoints() float64 {
	return i.BasePoints * i.Quantity * i.ComplexityScore
}

// ItemInput - позиция в том виде, в каком приходит из БД или тела запроса:
// любое поле может отсутствовать, Points перекрывает DefaultEstimatePoints
type ItemInput struct {
	Points                *float64 `json:"points,omitempty"`
	DefaultEstimatePoints *float64 `json:"default_estimate_points,omitempty"`
	Quantity              *float64 `json:"quantity,omitempty"`
	ComplexityScore       *float64 `json:"complexity_score,omitempty"`
}

// Normalize подставляет значения по умолчанию: баллы 0, количество 1, сложность 1.0
func (in ItemInput) Normalize() LineItem {
	item := LineItem{Quantity: 1, ComplexityScore: 1}

	switch {
	case in.Points != nil:
		item.BasePoints = *in.Points
	case in.DefaultEstimatePoints != nil:
		item.BasePoints = *in.DefaultEstimatePoints
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	if in.ComplexityScore != nil {
		item.ComplexityScore = *in.ComplexityScore
	}

	return item
}

// Result - итоги расчета, без округления
type Result struct {
	Price  float64 `json:"price"`
	Hours  float64 `json:"hours"`
	Points float64 `json:"points"`
}

// Finite проверяет, что все итоги - конечные числа
func (r Result) Finite() bool {
	for _, v := range []float64{r.Price, r.Hours, r.Points} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func HoursFromPoints(points float64) float64 {
	return points * HoursPerPoint
}

func PriceFromPoints(points float64) float64 {
	return BaseFee + points*PricePerPoint
}

// CalculateFromDeliverables суммирует баллы и часы по каждой позиции,
// а стоимость считает один раз от итоговых баллов (базовый сбор берется один раз)
func CalculateFromDeliverables(items []LineItem) Result {
	var totalPoints, totalHours float64

	for _, item := range items {
		effective := item.EffectivePoints()
		totalPoints += effective
		totalHours += HoursFromPoints(effective)
	}

	return Result{
		Price:  PriceFromPoints(totalPoints),
		Hours:  totalHours,
		Points: totalPoints,
	}
}

// Calculate нормализует входные позиции и считает итоги
func Calculate(inputs []ItemInput) Result {
	items := make([]LineItem, len(inputs))
	for i, in := range inputs {
		items[i] = in.Normalize()
	}
	return CalculateFromDeliverables(items)
}

// FormulaText - текст формулы для отображения в интерфейсе
func FormulaText() string {
	return fmt.Sprintf("Price = $%s base fee + $%s per point; 1 point = %s hours",
		formatAmount(BaseFee), formatAmount(PricePerPoint), formatAmount(HoursPerPoint))
}

func formatAmount(v float64) string {
	if v == math.Trunc(v) {
		return humanize.Comma(int64(v))
	}
	return humanize.FormatFloat("#,###.##", v)
}
