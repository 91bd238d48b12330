package authz

import "strings"

// IsReadOnlyQuery reports whether an ad-hoc report query is lexically
// read-only: the trimmed, lowercased text must begin with "select".
//
// This is a deliberately minimal defense. It blocks plain DML/DDL but not a
// SELECT that calls side-effecting functions; no stronger policy is applied.
func IsReadOnlyQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))

	if !strings.HasPrefix(q, "select") {
		return false
	}

	// "selectx" is not a select statement
	rest := q[len("select"):]

	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '(' || rest[0] == '*'
}
