package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvBool(t *testing.T) {
	for _, truthy := range []string{"1", "true", "TRUE", "yes", "on"} {
		t.Setenv("ANTHROSHIM_TEST_FLAG", truthy)
		assert.True(t, EnvBool("ANTHROSHIM_TEST_FLAG"), truthy)
	}
	for _, falsy := range []string{"", "0", "false", "off", "nope"} {
		t.Setenv("ANTHROSHIM_TEST_FLAG", falsy)
		assert.False(t, EnvBool("ANTHROSHIM_TEST_FLAG"), falsy)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("ANTHROSHIM_TEST_INT", "")
	assert.Equal(t, 42, EnvInt("ANTHROSHIM_TEST_INT", 42))

	t.Setenv("ANTHROSHIM_TEST_INT", "7")
	assert.Equal(t, 7, EnvInt("ANTHROSHIM_TEST_INT", 42))

	t.Setenv("ANTHROSHIM_TEST_INT", "not a number")
	assert.Equal(t, 42, EnvInt("ANTHROSHIM_TEST_INT", 42))
}

func TestOpenAIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	assert.Equal(t, "header-key", OpenAIKey("header-key"))
	assert.Equal(t, "env-key", OpenAIKey(""))

	t.Setenv("OPENAI_API_KEY", "")
	assert.Equal(t, "", OpenAIKey(""))
}

func TestOpenAIBaseURLPrecedence(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "")
	assert.Equal(t, DefaultBaseURL, OpenAIBaseURL(""))
	assert.Equal(t, "https://header.example/v1", OpenAIBaseURL("https://header.example/v1/"))

	t.Setenv("OPENAI_BASE_URL", "https://env.example/v1/")
	assert.Equal(t, "https://env.example/v1", OpenAIBaseURL(""))
}
