// Copyright (C) 2024 Tim Bastin, l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package utils

func Filter[T any](s []T, f func(T) bool) []T {
	r := make([]T, 0, len(s))
	for _, v := range s {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

func Map[T, U any](s []T, f func(T) U) []U {
	r := make([]U, len(s))
	for i, v := range s {
		r[i] = f(v)
	}
	return r
}

// SplitBalanced splits s into n groups whose sizes differ by at most one.
// The first len(s) % n groups receive the extra element. Empty groups are
// dropped, so fewer than n groups are returned when len(s) < n.
func SplitBalanced[T any](s []T, n int) [][]T {
	if n <= 0 {
		return nil
	}
	groups := make([][]T, 0, n)
	size := len(s) / n
	rest := len(s) % n
	start := 0
	for i := 0; i < n; i++ {
		groupSize := size
		if i < rest {
			groupSize++
		}
		if groupSize == 0 {
			continue
		}
		groups = append(groups, s[start:start+groupSize])
		start += groupSize
	}
	return groups
}
