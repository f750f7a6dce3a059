package keyset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_tConjunct_toExpression(t *testing.T) {
	timeNow := time.Now().UTC()

	tests := []struct {
		name     string
		conjunct tConjunct
		wantSQL  string
		wantVars []any
	}{
		{
			name:     "string less than",
			conjunct: tConjunct{Column: Col("name"), Operator: OperatorLT, Value: "abc"},
			wantSQL:  `"name" < ?`,
			wantVars: []any{"abc"},
		},
		{
			name:     "timestamp greater than",
			conjunct: tConjunct{Column: Col("created_at"), Operator: OperatorGT, Value: timeNow},
			wantSQL:  `"created_at" > ?`,
			wantVars: []any{timeNow},
		},
		{
			name:     "qualified integer equal",
			conjunct: tConjunct{Column: Col("t.id"), Operator: operatorEq, Value: 10},
			wantSQL:  `"t"."id" = ?`,
			wantVars: []any{10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, vars, err := Render(tt.conjunct.toGORMExpression(), newRenderDB(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantVars, vars)
		})
	}
}

func Test_tDisjunct_toExpression(t *testing.T) {
	tests := []struct {
		name     string
		disjunct tDisjunct
		wantSQL  string
		wantNil  bool
	}{
		{
			name: "single conjunct",
			disjunct: tDisjunct{
				{Column: Col("id"), Operator: OperatorGT, Value: 5},
			},
			wantSQL: `"id" > ?`,
		},
		{
			name: "multiple conjuncts",
			disjunct: tDisjunct{
				{Column: Col("id"), Operator: operatorEq, Value: 5},
				{Column: Col("name"), Operator: OperatorLT, Value: "abc"},
			},
			wantSQL: `("id" = ? AND "name" < ?)`,
		},
		{
			name:     "empty disjunct",
			disjunct: tDisjunct{},
			wantNil:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.disjunct.toGORMExpression()
			if tt.wantNil {
				assert.Nil(t, expr)
				return
			}

			sql, _, err := Render(expr, newRenderDB(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
		})
	}
}

func Test_tDNF_toExpression(t *testing.T) {
	tests := []struct {
		name     string
		dnf      tDNF
		wantSQL  string
		wantVars []any
		wantNil  bool
	}{
		{
			name: "single disjunct",
			dnf: tDNF{
				{{Column: Col("id"), Operator: OperatorLT, Value: 10}},
			},
			wantSQL:  `"id" < ?`,
			wantVars: []any{10},
		},
		{
			name: "multiple disjuncts",
			dnf: tDNF{
				{{Column: Col("id"), Operator: OperatorLT, Value: 10}},
				{
					{Column: Col("id"), Operator: operatorEq, Value: 10},
					{Column: Col("name"), Operator: OperatorLT, Value: "abc"},
				},
			},
			wantSQL:  `("id" < ? OR ("id" = ? AND "name" < ?))`,
			wantVars: []any{10, 10, "abc"},
		},
		{
			name:    "empty DNF",
			dnf:     tDNF{},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := tt.dnf.toGORMExpression()
			if tt.wantNil {
				assert.Nil(t, expr)
				return
			}

			sql, vars, err := Render(expr, newRenderDB(t))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantVars, vars)
		})
	}
}

func Test_toDNF(t *testing.T) {
	keys := mustKeys(t, Asc(Col("a")), Desc(Col("b")), Col("c"))

	dnf, err := toDNF(keys, Place{1, 2, 3})
	require.NoError(t, err)

	require.Len(t, dnf, 3)
	assert.Len(t, dnf[0], 1)
	assert.Len(t, dnf[1], 2)
	assert.Len(t, dnf[2], 3)

	assert.Equal(t, OperatorGT, dnf[0][0].Operator)
	assert.Equal(t, operatorEq, dnf[1][0].Operator)
	assert.Equal(t, OperatorLT, dnf[1][1].Operator)
	assert.Equal(t, operatorEq, dnf[2][1].Operator)
	assert.Equal(t, OperatorGT, dnf[2][2].Operator)
	assert.Equal(t, 3, dnf[2][2].Value)
}
