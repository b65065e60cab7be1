package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Suffix returns the last numeric segment of a dotted code.
func Suffix(code string) (int, bool) {
	segment := code
	if idx := strings.LastIndex(code, "."); idx >= 0 {
		segment = code[idx+1:]
	}
	n, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextCode derives the code of a new node given its parent code and the
// codes of its existing siblings.
func NextCode(kind Kind, parentCode string, siblingCodes []string) (string, error) {
	max := 0
	for _, code := range siblingCodes {
		if n, ok := Suffix(code); ok && n > max {
			max = n
		}
	}

	switch kind {
	case KindMastro:
		next := max + 1
		if next < FirstMastroCode {
			next = FirstMastroCode
		}
		if next > MaxMastroCode {
			return "", ErrCodeOverflow
		}
		return fmt.Sprintf("%03d", next), nil
	case KindConto:
		next := max + 1
		if next > MaxContoSeq {
			return "", ErrCodeOverflow
		}
		return fmt.Sprintf("%s.%02d", parentCode, next), nil
	case KindSottoconto:
		next := max + 1
		if next > MaxSottocontoSeq {
			return "", ErrCodeOverflow
		}
		return fmt.Sprintf("%s.%03d", parentCode, next), nil
	}
	return "", ErrInvalidKind
}

// Rebase replaces the oldPrefix of code with newPrefix.
func Rebase(code, oldPrefix, newPrefix string) string {
	if code == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(code, oldPrefix+".") {
		return newPrefix + code[len(oldPrefix):]
	}
	return code
}
