package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceHelpers(t *testing.T) {
	nums := []int{1, 2, 3, 4}

	assert.Equal(t, []int{2, 4}, Filter(nums, func(n int) bool { return n%2 == 0 }))
	assert.Equal(t, []string{"1", "2", "3", "4"}, Map(nums, func(n int) string { return Format(&n) }))
	assert.Equal(t, 3, *Find(nums, func(n int) bool { return n > 2 }))
	assert.Nil(t, Find(nums, func(n int) bool { return n > 9 }))
	assert.Equal(t, 7, Deref[int](nil, 7))
	assert.Equal(t, "", Format[string](nil))
}
