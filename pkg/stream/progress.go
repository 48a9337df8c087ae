package stream

import "fmt"

// Progress is a snapshot of how much of the stream has been handed out.
type Progress struct {
	Consumed int64
	Total    int64
	Known    bool // Total is meaningful
}

// Fraction returns Consumed/Total in [0, 1], or -1 when the total is unknown.
func (p Progress) Fraction() float64 {
	if !p.Known {
		return -1
	}
	if p.Total <= 0 {
		return 1
	}
	f := float64(p.Consumed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

func (p Progress) String() string {
	if !p.Known {
		return fmt.Sprintf("Analyzed %d bytes", p.Consumed)
	}
	return fmt.Sprintf("Analyzed %.2f%% of file", p.Fraction()*100)
}
