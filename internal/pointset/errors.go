package pointset

import "fmt"

func errEmptyOrInvalid(n, d int) error {
	return fmt.Errorf("pointset: n and d must be positive, got n=%d d=%d", n, d)
}

func errLength(got, want int) error {
	return fmt.Errorf("pointset: data length %d does not match n*d=%d", got, want)
}
