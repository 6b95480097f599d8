package common

import (
	"context"
	"log"
)

func All[T any](array []T, block func(it T) bool) bool {
	for _, it := range array {
		if !block(it) {
			return false
		}
	}
	return true
}

func Done(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func Error(_ any, err error) error {
	return err
}

func Must(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func Must1(_ any, err error) {
	if err != nil {
		log.Fatalln(err)
	}
}
