//go:build !go1.21

package common

import "sync"

func OnceValues[T1, T2 any](f func() (T1, T2)) func() (T1, T2) {
	var (
		once   sync.Once
		value1 T1
		value2 T2
	)
	return func() (T1, T2) {
		once.Do(func() {
			value1, value2 = f()
		})
		return value1, value2
	}
}
