package format

import (
	"fmt"
	"strconv"
	"strings"
)

func ToString(messages ...any) string {
	var output strings.Builder
	for _, rawMessage := range messages {
		output.WriteString(toString(rawMessage))
	}
	return output.String()
}

func toString(rawMessage any) string {
	switch message := rawMessage.(type) {
	case nil:
		return "nil"
	case string:
		return message
	case bool:
		return strconv.FormatBool(message)
	case int:
		return strconv.Itoa(message)
	case int64:
		return strconv.FormatInt(message, 10)
	case uint64:
		return strconv.FormatUint(message, 10)
	case uintptr:
		return strconv.FormatUint(uint64(message), 10)
	case error:
		return message.Error()
	case fmt.Stringer:
		return message.String()
	default:
		return fmt.Sprint(rawMessage)
	}
}

func MapToString[T any](arr []T) []string {
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		result = append(result, ToString(item))
	}
	return result
}
