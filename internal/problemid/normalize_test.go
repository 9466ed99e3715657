package problemid

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"  ":                        "",
		"interruption_swap_recall":  "interruption-swap-recall",
		"Interruption Swap Recall":  "interruption-swap-recall",
		"interruption-swap-recall":  "interruption-swap-recall",
		"swap-recall":               "interruption-swap-recall",
		"ISR":                       "interruption-swap-recall",
		"problem_swap_recall":       "interruption-swap-recall",
		"-serial_recall-":           "serial-recall",
		"InterruptionSwapRecall":    "interruption-swap-recall",
		"problem-interruption-swap": "problem-interruption-swap",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q)=%q want %q", in, got, want)
		}
	}
}
