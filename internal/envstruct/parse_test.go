package envstruct_test

import (
	"github.com/myrjola/briefly/internal/envstruct"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestPopulate(t *testing.T) {
	type config struct {
		Addr string `env:"BRIEFLY_ADDR" envDefault:"localhost:4000"`
		Key  string `env:"OPENAI_API_KEY"`
	}

	tests := []struct {
		name      string
		v         any
		lookupEnv func(string) (string, bool)
		want      any
		wantErr   error
	}{
		{
			name:      "nil",
			v:         nil,
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      nil,
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "not pointer",
			v:         struct{}{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      nil,
			wantErr:   envstruct.ErrInvalidValue,
		},
		{
			name:      "empty struct",
			v:         &struct{}{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      &struct{}{},
			wantErr:   nil,
		},
		{
			name:      "required env not set falls back to default only where tagged",
			v:         &config{},
			lookupEnv: func(_ string) (string, bool) { return "", false },
			want:      nil,
			wantErr:   envstruct.ErrEnvNotSet,
		},
		{
			name: "env is set",
			v:    &config{},
			lookupEnv: func(key string) (string, bool) {
				if key == "OPENAI_API_KEY" {
					return "sk-test", true
				}
				return "", false
			},
			want: &config{
				Addr: "localhost:4000",
				Key:  "sk-test",
			},
			wantErr: nil,
		},
		{
			name: "non-string field",
			v: &struct {
				Port int `env:"BRIEFLY_PORT"`
			}{},
			lookupEnv: func(_ string) (string, bool) { return "4000", true },
			want:      nil,
			wantErr:   envstruct.ErrInvalidValue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envstruct.Populate(tt.v, tt.lookupEnv)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, tt.v)
		})
	}
}
