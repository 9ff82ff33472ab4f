package testing

import (
	"os"
	stdtesting "testing"

	"github.com/stretchr/testify/assert"
)

func TestImportEnablesTestMode(t *stdtesting.T) {
	assert.Equal(t, "1", os.Getenv("PUSHPERM_TEST_MODE"))
	assert.NotEmpty(t, os.Getenv("ROLE_STORE"))
}
