package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macropower/foldex/pkg/version"
)

func TestInfo(t *testing.T) {
	t.Parallel()

	info := version.Info()

	assert.Contains(t, info, "foldex "+version.GetVersion())
	assert.Contains(t, info, "revision: "+version.Revision)
	assert.Contains(t, info, version.GoVersion)
	assert.NotEmpty(t, version.GetVersion())
}
