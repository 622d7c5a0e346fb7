package transcript

import (
	"strconv"
	"testing"

	"github.com/prepsych/copilot/internal/domain"
)

func makeSegments(n int) []domain.TranscriptSegment {
	out := make([]domain.TranscriptSegment, n)
	for i := range out {
		out[i] = domain.TranscriptSegment{
			Start: float64(i),
			End:   float64(i + 1),
			Text:  "seg" + strconv.Itoa(i),
		}
	}
	return out
}

func TestSplitEvenDivision(t *testing.T) {
	windows := Split(makeSegments(10), 5)

	if len(windows) != 5 {
		t.Fatalf("Expected 5 windows, got %d", len(windows))
	}
	for i, w := range windows {
		if len(w.Segments) != 2 {
			t.Errorf("Window %d: expected 2 segments, got %d", i, len(w.Segments))
		}
	}
}

func TestSplitRemainderGoesToLastWindow(t *testing.T) {
	windows := Split(makeSegments(11), 5)

	if len(windows) != 5 {
		t.Fatalf("Expected 5 windows, got %d", len(windows))
	}
	for i := 0; i < 4; i++ {
		if len(windows[i].Segments) != 2 {
			t.Errorf("Window %d: expected 2 segments, got %d", i, len(windows[i].Segments))
		}
	}
	if len(windows[4].Segments) != 3 {
		t.Errorf("Last window should absorb the remainder, got %d segments", len(windows[4].Segments))
	}
}

func TestSplitFewerSegmentsThanWindows(t *testing.T) {
	windows := Split(makeSegments(3), 5)

	if len(windows) != 3 {
		t.Fatalf("Expected 3 windows of 1, got %d", len(windows))
	}
	for i, w := range windows {
		if len(w.Segments) != 1 {
			t.Errorf("Window %d: expected 1 segment, got %d", i, len(w.Segments))
		}
	}
}

func TestSplitReconstruction(t *testing.T) {
	for _, n := range []int{1, 2, 4, 5, 7, 10, 11, 23, 100} {
		for _, k := range []int{1, 2, 5, 8} {
			segments := makeSegments(n)
			windows := Split(segments, k)

			if len(windows) > k {
				t.Errorf("n=%d k=%d: got %d windows, want <= %d", n, k, len(windows), k)
			}
			var joined []domain.TranscriptSegment
			for _, w := range windows {
				joined = append(joined, w.Segments...)
			}
			if len(joined) != n {
				t.Fatalf("n=%d k=%d: reconstruction has %d segments", n, k, len(joined))
			}
			for i := range joined {
				if joined[i] != segments[i] {
					t.Fatalf("n=%d k=%d: segment %d differs after reconstruction", n, k, i)
				}
			}
			// Only the last window may exceed the common size.
			if len(windows) > 1 {
				common := len(windows[0].Segments)
				for i := 0; i < len(windows)-1; i++ {
					if len(windows[i].Segments) != common {
						t.Errorf("n=%d k=%d: window %d size %d differs from common %d", n, k, i, len(windows[i].Segments), common)
					}
				}
			}
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if windows := Split(nil, 5); len(windows) != 0 {
		t.Errorf("Expected zero windows for zero segments, got %d", len(windows))
	}
}

func TestSplitClampsWindowCount(t *testing.T) {
	windows := Split(makeSegments(4), 0)
	if len(windows) != 1 || len(windows[0].Segments) != 4 {
		t.Errorf("Expected a single whole-transcript window, got %d windows", len(windows))
	}
}

func TestWindowText(t *testing.T) {
	cases := []struct {
		name     string
		segments []domain.TranscriptSegment
		want     string
	}{
		{
			"joins with spaces",
			[]domain.TranscriptSegment{{Text: "hello"}, {Text: "world"}},
			"hello world",
		},
		{
			"trims surrounding whitespace",
			[]domain.TranscriptSegment{{Text: " hello "}, {Text: ""}},
			"hello",
		},
		{
			"whitespace only is empty",
			[]domain.TranscriptSegment{{Text: "  "}, {Text: ""}},
			"",
		},
		{
			"no segments",
			nil,
			"",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := (Window{Segments: tc.segments}).Text(); got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}
