package grading

// Composite is the derived score for one (student, subject, season). Nil
// component pointers mean "ungraded"; reports render those blank, which is
// not the same thing as a recorded zero.
type Composite struct {
	ExercisesScore float64
	MonthlyExam1   *float64
	MonthlyExam2   *float64
	Behaviour      *float64
	Attendance     *float64
	SeasonExam     *float64
	Total          float64
}

// MonthlyTotal is the monthly-exam contribution to Total: the mean when both
// slots are graded, the single value when one is, zero when neither.
func (c Composite) MonthlyTotal() float64 {
	switch {
	case c.MonthlyExam1 != nil && c.MonthlyExam2 != nil:
		return capAt((*c.MonthlyExam1+*c.MonthlyExam2)/2, MonthlyExamMax)
	case c.MonthlyExam1 != nil:
		return capAt(*c.MonthlyExam1, MonthlyExamMax)
	case c.MonthlyExam2 != nil:
		return capAt(*c.MonthlyExam2, MonthlyExamMax)
	default:
		return 0
	}
}

// Participation is behaviour plus attendance, capped at 10. An absent
// component contributes 0 without making the whole figure absent.
func (c Composite) Participation() float64 {
	total := 0.0
	if c.Behaviour != nil {
		total += *c.Behaviour
	}
	if c.Attendance != nil {
		total += *c.Attendance
	}
	return capAt(total, ParticipationCap)
}

// Aggregate folds a (student, subject, season) event set into its composite
// score. It is a pure from-scratch fold, safe to rerun on every write, so
// repeated partial updates can never leave incremental state behind. Values
// are range-checked before they are stored; the caps here are the formula's
// own component budgets, not input sanitation.
func Aggregate(events []Event) Composite {
	var c Composite
	exercises := 0.0

	for _, e := range events {
		switch e.Kind {
		case KindExercise:
			exercises += e.Value
		case KindMonthlyExam:
			v := e.Value
			if e.ExamSlot == 1 {
				c.MonthlyExam1 = &v
			} else if e.ExamSlot == 2 {
				c.MonthlyExam2 = &v
			}
		case KindBehaviour:
			v := e.Value
			c.Behaviour = &v
		case KindAttendance:
			v := e.Value
			c.Attendance = &v
		case KindSeasonExam:
			v := e.Value
			c.SeasonExam = &v
		}
	}

	c.ExercisesScore = capAt(exercises, ExercisesCap)

	seasonExam := 0.0
	if c.SeasonExam != nil {
		seasonExam = capAt(*c.SeasonExam, SeasonExamMax)
	}

	// Each part is capped, so the sum is bounded by 10+20+10+60 = 100.
	c.Total = c.ExercisesScore + c.MonthlyTotal() + c.Participation() + seasonExam
	return c
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
