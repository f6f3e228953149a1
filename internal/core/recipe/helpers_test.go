package recipe

import "fmt"

func fmtMixed(w, n, d int) string { return fmt.Sprintf("%d %d/%d", w, n, d) }

func fmtFraction(n, d int) string { return fmt.Sprintf("%d/%d", n, d) }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
