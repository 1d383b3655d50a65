package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompletion_TextEmptyChoices(t *testing.T) {
	var c Completion
	assert.Equal(t, "", c.Text())
}

func TestCompletion_TextFirstChoice(t *testing.T) {
	c := Completion{Choices: []Choice{{Message: Message{Content: "hello"}}, {Message: Message{Content: "ignored"}}}}
	assert.Equal(t, "hello", c.Text())
}
