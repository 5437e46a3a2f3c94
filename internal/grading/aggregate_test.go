package grading

import (
	"testing"
)

func exercise(value float64) Event {
	return Event{Kind: KindExercise, Value: value}
}

func monthly(slot int, value float64) Event {
	return Event{Kind: KindMonthlyExam, ExamSlot: slot, Value: value}
}

func TestAggregate_ExercisesCap(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"No exercises", nil, 0},
		{"Single below cap", []float64{6}, 6},
		{"Sum below cap", []float64{3, 4}, 7},
		{"Sum over cap", []float64{7, 6}, 10},
		{"Many small over cap", []float64{3, 3, 3, 3}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var events []Event
			for _, v := range tt.values {
				events = append(events, exercise(v))
			}
			got := Aggregate(events)
			if got.ExercisesScore != tt.want {
				t.Errorf("ExercisesScore = %.2f, want %.2f", got.ExercisesScore, tt.want)
			}
		})
	}
}

func TestAggregate_MonthlyTotal(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   float64
	}{
		{"Both slots mean", []Event{monthly(1, 14), monthly(2, 18)}, 16},
		{"Only slot 1", []Event{monthly(1, 12)}, 12},
		{"Only slot 2", []Event{monthly(2, 19)}, 19},
		{"Neither", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.events)
			if got.MonthlyTotal() != tt.want {
				t.Errorf("MonthlyTotal = %.2f, want %.2f", got.MonthlyTotal(), tt.want)
			}
		})
	}
}

func TestAggregate_Participation(t *testing.T) {
	behaviour := func(v float64) Event { return Event{Kind: KindBehaviour, Value: v} }
	attendance := func(v float64) Event { return Event{Kind: KindAttendance, Value: v} }

	tests := []struct {
		name   string
		events []Event
		want   float64
	}{
		{"Both at cap", []Event{behaviour(5), attendance(5)}, 10},
		{"Behaviour absent attendance 3", []Event{attendance(3)}, 3},
		{"Attendance absent behaviour 4", []Event{behaviour(4)}, 4},
		{"Both absent", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.events)
			if got.Participation() != tt.want {
				t.Errorf("Participation = %.2f, want %.2f", got.Participation(), tt.want)
			}
		})
	}
}

func TestAggregate_AbsentVersusZero(t *testing.T) {
	got := Aggregate([]Event{
		{Kind: KindSeasonExam, Value: 0},
		{Kind: KindBehaviour, Value: 0},
	})

	if got.SeasonExam == nil || *got.SeasonExam != 0 {
		t.Error("Graded zero season exam must be present, not absent")
	}
	if got.Behaviour == nil || *got.Behaviour != 0 {
		t.Error("Graded zero behaviour must be present, not absent")
	}
	if got.Attendance != nil || got.MonthlyExam1 != nil || got.MonthlyExam2 != nil {
		t.Error("Ungraded components must stay absent")
	}
}

func TestAggregate_Total(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   float64
	}{
		{"Empty set", nil, 0},
		{
			"All components at cap",
			[]Event{
				exercise(10),
				monthly(1, 20), monthly(2, 20),
				{Kind: KindBehaviour, Value: 5},
				{Kind: KindAttendance, Value: 5},
				{Kind: KindSeasonExam, Value: 60},
			},
			100,
		},
		{
			"Partial presence",
			[]Event{
				exercise(7), exercise(6), // capped to 10
				monthly(1, 14), monthly(2, 18), // mean 16
				{Kind: KindAttendance, Value: 3}, // behaviour absent
				{Kind: KindSeasonExam, Value: 41},
			},
			10 + 16 + 3 + 41,
		},
		{
			"Absent components contribute zero",
			[]Event{monthly(1, 11)},
			11,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.events)
			if got.Total != tt.want {
				t.Errorf("Total = %.2f, want %.2f", got.Total, tt.want)
			}
			if got.Total < 0 || got.Total > 100 {
				t.Errorf("Total %.2f outside 0..100", got.Total)
			}
		})
	}
}

func TestAggregate_Pure(t *testing.T) {
	events := []Event{
		exercise(4), exercise(5),
		monthly(1, 13),
		{Kind: KindBehaviour, Value: 4},
		{Kind: KindSeasonExam, Value: 50},
	}

	first := Aggregate(events)
	for i := 0; i < 5; i++ {
		again := Aggregate(events)
		if again.Total != first.Total || again.ExercisesScore != first.ExercisesScore {
			t.Fatal("Aggregate must return identical results for identical input")
		}
	}
}
