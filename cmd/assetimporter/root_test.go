package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jgivc/assetimporter/internal/app"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		wantErr  bool
		wantCode int
		check    func(t *testing.T, opts app.Options)
	}{
		{
			name: "defaults",
			args: []string{"/data/in"},
			check: func(t *testing.T, opts app.Options) {
				require.Equal(t, "/data/in", opts.SourceDir)
				require.Equal(t, "/", opts.RootPath)
				require.Equal(t, "config.yml", opts.ConfigPath)
				require.Zero(t, opts.BatchSize)
				require.False(t, opts.UpdateAssets)
				require.False(t, opts.DeleteOriginal)
			},
		},
		{
			name: "all flags",
			args: []string{
				"in", "--rootPath", "/Images", "--updateAssets", "--batchSize", "10",
				"--deleteOriginal", "--includeTypes", "image,video", "--excludeTypes", "text",
				"--includeExtensions", "png", "--excludeExtensions", "tmp", "-c", "other.yml",
				"--includeDotFiles", "--log-level", "debug",
			},
			wantCode: 2,
			check: func(t *testing.T, opts app.Options) {
				require.Equal(t, app.Options{
					ConfigPath:        "other.yml",
					SourceDir:         "in",
					RootPath:          "/Images",
					UpdateAssets:      true,
					DeleteOriginal:    true,
					BatchSize:         10,
					IncludeTypes:      "image,video",
					ExcludeTypes:      "text",
					IncludeExtensions: "png",
					ExcludeExtensions: "tmp",
					IncludeDotFiles:   true,
					LogLevel:          "debug",
				}, opts)
			},
		},
		{
			name:    "missing source",
			args:    []string{},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"in", "--nope"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got    app.Options
				called bool
				code   int
			)

			run := func(_ context.Context, opts app.Options) int {
				called = true
				got = opts

				return tc.wantCode
			}

			cmd := newRootCommand(run, &code)
			cmd.SetArgs(tc.args)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})

			err := cmd.ExecuteContext(context.Background())
			if tc.wantErr {
				require.Error(t, err)
				require.False(t, called)

				return
			}

			require.NoError(t, err)
			require.True(t, called)
			require.Equal(t, tc.wantCode, code)
			tc.check(t, got)
		})
	}
}

func TestHelpListsAssetTypes(t *testing.T) {
	var code int
	out := &bytes.Buffer{}

	cmd := newRootCommand(func(context.Context, app.Options) int { return 0 }, &code)
	cmd.SetArgs([]string{"--help"})
	cmd.SetOut(out)

	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "folder, image, text, audio, video, document, archive, unknown")
}
