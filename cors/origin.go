// Copyright 2024 SpotHero
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cors

// AnyOrigin is the pattern that allows every origin
const AnyOrigin = "*"

// Match reports whether origin satisfies pattern. The pattern "*" matches any
// non-empty origin. Any other pattern is compared against the whole origin,
// where each "*" stands for zero or more characters of any kind (dots and
// slashes included). Matching is case-sensitive and anchored at both ends, so
// "*.example.com" matches "https://a.b.example.com" but not
// "https://a.example.com.evil.com".
func Match(pattern, origin string) bool {
	if origin == "" {
		return false
	}
	if pattern == AnyOrigin {
		return true
	}
	return glob(pattern, origin)
}

// MatchAny returns the first pattern in patterns that origin satisfies.
func MatchAny(patterns []string, origin string) (string, bool) {
	for _, pattern := range patterns {
		if Match(pattern, origin) {
			return pattern, true
		}
	}
	return "", false
}

// glob matches s against pattern using "*" as the only metacharacter. On a
// mismatch the most recent star is extended by one character and matching
// resumes from there, which keeps the worst case at O(len(pattern)*len(s)).
func glob(pattern, s string) bool {
	var p, i int
	star, mark := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = i
			p++
		case p < len(pattern) && pattern[p] == s[i]:
			p++
			i++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}
	// trailing stars match the empty remainder
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
