package foldertype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/foldex/pkg/foldertype"
)

func TestNewSet(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err  error
		msg  string
		defs  []*foldertype.Definition
	}{
		"valid": {
			defs: []*foldertype.Definition{
				foldertype.New("go", "Go", foldertype.WithAny("go.mod")),
				foldertype.New(foldertype.Unknown, "Unknown"),
			},
		},
		"only unknown": {
			defs: []*foldertype.Definition{foldertype.New(foldertype.Unknown, "Unknown")},
		},
		"empty": {
			err: foldertype.ErrMissingUnknown,
			msg: `invalid folder types: missing "unknown" type`,
		},
		"empty id": {
			defs: []*foldertype.Definition{
				foldertype.New(foldertype.Unknown, "Unknown"),
				foldertype.New("", "Nameless"),
			},
			err: foldertype.ErrEmptyID,
			msg: "types[1].id: invalid folder types: empty id",
		},
		"duplicate id": {
			defs: []*foldertype.Definition{
				foldertype.New("go", "Go"),
				foldertype.New(foldertype.Unknown, "Unknown"),
				foldertype.New("go", "Golang"),
			},
			err: foldertype.ErrDuplicateID,
			msg: `types[2].id: invalid folder types: duplicate id "go" (first defined at types[0])`,
		},
		"nil definition": {
			defs: []*foldertype.Definition{nil},
			err:  foldertype.ErrEmptyID,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			set, err := foldertype.NewSet(tc.defs)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				require.ErrorIs(t, err, foldertype.ErrInvalid)
				assert.Nil(t, set)

				var verr *foldertype.ValidationError
				require.ErrorAs(t, err, &verr)

				if tc.msg != "" {
					assert.EqualError(t, err, tc.msg)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, len(tc.defs), set.Len())
			assert.True(t, set.Has(foldertype.Unknown))
		})
	}
}

func TestSet_Lookup(t *testing.T) {
	t.Parallel()

	goDef := foldertype.New("go", "Go", foldertype.WithIcon("go"), foldertype.WithAny("go.mod"))
	set := foldertype.MustNewSet(goDef, foldertype.New(foldertype.Unknown, "Unknown"))

	got, ok := set.Get("go")
	require.True(t, ok)
	assert.Same(t, goDef, got)

	_, ok = set.Get("rust")
	assert.False(t, ok)
	assert.False(t, set.Has("rust"))

	assert.Equal(t, []foldertype.Public{
		{ID: "go", Label: "Go", Icon: "go"},
		{ID: foldertype.Unknown, Label: "Unknown"},
	}, set.Public())

	// Mutating the returned slice does not affect the set.
	defs := set.Definitions()
	defs[0] = nil
	assert.Equal(t, "go", set.Definitions()[0].ID)
}

func TestMustNewSet_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		foldertype.MustNewSet(foldertype.New("go", "Go"))
	})
}
