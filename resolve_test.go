package keyset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tBook struct {
	ID     uint `gorm:"primaryKey"`
	Title  string
	Rating *int
}

func (tBook) TableName() string { return "books" }

func Test_Resolve(t *testing.T) {
	book := MustEntity(&tBook{})

	tests := []struct {
		name      string
		key       Expr
		outputs   []Output
		wantKind  string
		wantIndex int
		wantAttr  string
	}{
		{
			name:      "expression output",
			key:       Desc(Col("books.title")),
			outputs:   Exprs(Col("books.id"), Col("books.title")),
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name:      "labelled expression output",
			key:       Col("books.title"),
			outputs:   Exprs(Col("books.id"), As(Col("books.title"), "t")),
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name: "bundle sub-column",
			key:  Col("books.title"),
			outputs: []Output{
				&ExprOutput{Expr: Col("books.id")},
				Bundle("b", BundleColumn{Key: "id", Expr: Col("books.id")}, BundleColumn{Key: "title", Expr: Col("books.title")}),
			},
			wantKind:  "attribute",
			wantIndex: 1,
			wantAttr:  "title",
		},
		{
			name:      "entity column",
			key:       Desc(book.Column("Title")),
			outputs:   []Output{&EntityOutput{Entity: book}},
			wantKind:  "attribute",
			wantIndex: 0,
			wantAttr:  "Title",
		},
		{
			name:      "entity attribute",
			key:       RawExpr("books.rating"),
			outputs:   []Output{book.Attr("ID"), book.Attr("Rating")},
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name:      "textual match",
			key:       Asc(RawExpr("books.title")),
			outputs:   Exprs(Col("books.id"), Col("books.title")),
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name:      "textual match compares the first token only",
			key:       RawExpr("a + b"),
			outputs:   Exprs(Col("id"), Col("a")),
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name:      "label fallback",
			key:       Col("title"),
			outputs:   Exprs(Col("books.id"), As(Col("books.title"), "title")),
			wantKind:  "direct",
			wantIndex: 1,
		},
		{
			name:     "label fallback needs a qualified column",
			key:      Col("title"),
			outputs:  Exprs(As(RawExpr("upper(title)"), "title")),
			wantKind: "appended",
		},
		{
			name:     "missing column is appended",
			key:      Desc(Col("books.rating")),
			outputs:  Exprs(Col("books.id"), Col("books.title")),
			wantKind: "appended",
		},
		{
			name:      "first output position wins",
			key:       Col("books.id"),
			outputs:   []Output{&EntityOutput{Entity: book}, &ExprOutput{Expr: Col("books.id")}},
			wantKind:  "attribute",
			wantIndex: 0,
			wantAttr:  "ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := mustKeys(t, tt.key)[0]
			rk := Resolve(k, tt.outputs)
			assert.Same(t, k, rk.Key())

			switch v := rk.(type) {
			case *DirectKey:
				assert.Equal(t, "direct", tt.wantKind)
				assert.Equal(t, tt.wantIndex, v.Index)
				assert.Nil(t, v.ExtraColumn())
				assert.True(t, k.Expr().Equal(v.OrderClause()))
			case *AttributeKey:
				assert.Equal(t, "attribute", tt.wantKind)
				assert.Equal(t, tt.wantIndex, v.Index)
				assert.Equal(t, tt.wantAttr, v.Attr)
				assert.Nil(t, v.ExtraColumn())
			case *AppendedKey:
				assert.Equal(t, "appended", tt.wantKind)
				require.NotNil(t, v.ExtraColumn())
				assert.True(t, strings.HasPrefix(v.Name, syntheticPrefix))
				assert.True(t, k.Comparable().Equal(v.ExtraColumn().Elem))
			default:
				t.Fatalf("unexpected resolved key %T", rk)
			}
		})
	}
}

func Test_Resolve_AppendedNamesAreUnique(t *testing.T) {
	keys := mustKeys(t, Col("a"), Col("b"), Desc(Col("c")))

	seen := map[string]bool{}
	for _, k := range keys {
		rk, ok := Resolve(k, nil).(*AppendedKey)
		require.True(t, ok)
		assert.False(t, seen[rk.Name], "duplicate synthetic name %s", rk.Name)
		seen[rk.Name] = true
	}
}

func Test_AppendedKey_OrderClause(t *testing.T) {
	keys := mustKeys(t, Col("a"), Desc(Col("b")))

	asc := Resolve(keys[0], nil).(*AppendedKey)
	sql, _ := mustRender(t, asc.OrderClause())
	assert.Equal(t, `"`+asc.Name+`"`, sql)

	desc := Resolve(keys[1], nil).(*AppendedKey)
	sql, _ = mustRender(t, desc.OrderClause())
	assert.Equal(t, `"`+desc.Name+`" DESC`, sql)

	sql, _ = mustRender(t, desc.ExtraColumn())
	assert.Equal(t, `"b" AS "`+desc.Name+`"`, sql)
}

func Test_resolve_LabelFallbackStripsLabel(t *testing.T) {
	k := mustKeys(t, Desc(Col("title")))[0]
	outputs := Exprs(As(Col("books.title"), "title"))

	rk := resolve(k, outputs, true)
	direct, ok := rk.(*DirectKey)
	require.True(t, ok)
	assert.Equal(t, 0, direct.Index)
	assert.True(t, Desc(Col("books.title")).Equal(rk.Key().Expr()))
	assert.Equal(t, DirectionDESC, rk.Key().Direction())

	assert.Same(t, k, resolve(k, outputs, false).Key())
}

func Test_resolveCompound(t *testing.T) {
	a := NewSelect(Exprs(Col("id"), Col("name"))...).From("a")
	b := NewSelect(Exprs(Col("id"), Col("title"), Col("score"))...).From("b")

	k := mustKeys(t, Col("score"))[0]
	rk := resolveCompound(k, []*Select{a, b})

	direct, ok := rk.(*DirectKey)
	require.True(t, ok)
	assert.Equal(t, 2, direct.Index)
}

func Test_ResolvedKey_ValueFrom(t *testing.T) {
	book := MustEntity(&tBook{})
	rating := 4
	model := &tBook{ID: 7, Title: "Dune", Rating: &rating}

	row := NewRow(
		[]string{"id", "b", "tBook", "_keyset_oc_x"},
		[]any{int64(7), Record{"title": "Dune"}, model, "extra"},
	)

	keys := mustKeys(t, Col("x"))
	tests := []struct {
		name string
		rk   ResolvedKey
		want any
	}{
		{"direct", &DirectKey{key: keys[0], Index: 0}, int64(7)},
		{"bundle attribute", &AttributeKey{key: keys[0], Index: 1, Attr: "title"}, "Dune"},
		{"entity attribute", &AttributeKey{key: keys[0], Index: 2, Attr: "ID", entity: book}, uint(7)},
		{"appended", &AppendedKey{key: keys[0], Name: "_keyset_oc_x"}, "extra"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rk.ValueFrom(row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&DirectKey{key: keys[0], Index: 9}).ValueFrom(row)
	assert.Error(t, err)

	_, err = (&AttributeKey{key: keys[0], Index: 1, Attr: "missing"}).ValueFrom(row)
	assert.Error(t, err)

	_, err = (&AttributeKey{key: keys[0], Index: 0, Attr: "ID", entity: book}).ValueFrom(row)
	assert.Error(t, err)
}
