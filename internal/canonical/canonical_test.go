/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarshalSortsTopLevelKeys(t *testing.T) {
	v := map[string]interface{}{"b": 1, "a": 2}
	assert.Equal(t, `{"a":2,"b":1}`, string(Marshal(v)))
}

func TestMarshalSortsNestedKeys(t *testing.T) {
	v := map[string]interface{}{
		"outer": map[string]interface{}{"z": 1, "y": 2},
	}
	assert.Equal(t, `{"outer":{"y":2,"z":1}}`, string(Marshal(v)))
}

func TestMarshalIsOrderIndependentOfInputIteration(t *testing.T) {
	type pair struct{ k, v string }
	build := func(order []pair) map[string]interface{} {
		m := map[string]interface{}{}
		for _, p := range order {
			m[p.k] = p.v
		}
		return m
	}
	a := build([]pair{{"x", "1"}, {"y", "2"}})
	b := build([]pair{{"y", "2"}, {"x", "1"}})
	assert.Equal(t, Marshal(a), Marshal(b))
}

func TestMarshalArraysPreserveOrder(t *testing.T) {
	v := []interface{}{3, 1, 2}
	assert.Equal(t, `[3,1,2]`, string(Marshal(v)))
}

func TestMarshalEscapesStrings(t *testing.T) {
	v := "hello \"world\"\n"
	assert.Equal(t, `"hello \"world\"\n"`, string(Marshal(v)))
}

func TestMarshalStructCanonicalizesNestedStructs(t *testing.T) {
	type inner struct {
		Z int `json:"z"`
		Y int `json:"y"`
	}
	type outer struct {
		B inner  `json:"b"`
		A string `json:"a"`
	}
	got := string(MarshalStruct(outer{B: inner{Z: 1, Y: 2}, A: "x"}))
	assert.Equal(t, `{"a":"x","b":{"y":2,"z":1}}`, got)
}

func TestMarshalIntegersHaveNoDecimalPoint(t *testing.T) {
	assert.Equal(t, `0`, string(Marshal(float64(0))))
	assert.Equal(t, `500`, string(Marshal(float64(500))))
}
