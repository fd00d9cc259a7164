package sim

import (
    "testing"
    "time"
)

func TestSecondsRoundsToNanosecond(t *testing.T) {
    if got := Seconds(8000 / 8e6); got != time.Millisecond { t.Fatalf("got %s", got) }
    if got := Seconds(1028.0 / 2356230.0); got != 436290*time.Nanosecond { t.Fatalf("got %s", got) }
}

func TestTimeArithmetic(t *testing.T) {
    a := Time(time.Second)
    b := a.Add(250 * time.Millisecond)
    if b.Sub(a) != 250*time.Millisecond { t.Fatalf("sub = %s", b.Sub(a)) }
    if b.Seconds() != 1.25 { t.Fatalf("seconds = %v", b.Seconds()) }
    if b.String() != "+1.25s" { t.Fatalf("string = %s", b) }
}
