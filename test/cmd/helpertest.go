package cmd

import (
	"context"
	"log/slog"

	"github.com/inventree/invctl/internal/build"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/cmd/root/verbs"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/spf13/cobra"
)

type MockHelper struct {
	GetCmdMock          func() *cobra.Command
	GetArgsMock         func() []string
	GetVerbMock         func() (verbs.VerbValue, error)
	GetStreamsMock      func() *iostreams.IOStreams
	GetConfigMock       func() (config.Hook, error)
	GetOutputFormatMock func() (common.OutputFormat, error)
	IsInteractiveMock   func() (bool, error)
	GetLoggerMock       func() (*slog.Logger, error)
	GetBuildInfoMock    func() (*build.Info, error)
	GetContextMock      func() context.Context
	GetAPIClientMock    func(config.Hook, *slog.Logger) (*inventree.Client, error)
	GetLabelStoreMock   func(config.Hook) (metadata.LabelStore, func(), error)
}

func (m *MockHelper) GetCmd() *cobra.Command {
	return m.GetCmdMock()
}

func (m *MockHelper) GetArgs() []string {
	return m.GetArgsMock()
}

func (m *MockHelper) GetVerb() (verbs.VerbValue, error) {
	return m.GetVerbMock()
}

func (m *MockHelper) GetStreams() *iostreams.IOStreams {
	return m.GetStreamsMock()
}

func (m *MockHelper) GetConfig() (config.Hook, error) {
	return m.GetConfigMock()
}

func (m *MockHelper) GetOutputFormat() (common.OutputFormat, error) {
	if m.GetOutputFormatMock == nil {
		return common.TEXT, nil
	}
	return m.GetOutputFormatMock()
}

func (m *MockHelper) IsInteractive() (bool, error) {
	if m.IsInteractiveMock == nil {
		return false, nil
	}
	return m.IsInteractiveMock()
}

func (m *MockHelper) GetLogger() (*slog.Logger, error) {
	return m.GetLoggerMock()
}

func (m *MockHelper) GetBuildInfo() (*build.Info, error) {
	return m.GetBuildInfoMock()
}

func (m *MockHelper) GetContext() context.Context {
	if m.GetContextMock == nil {
		return context.Background()
	}
	return m.GetContextMock()
}

func (m *MockHelper) GetAPIClient(cfg config.Hook, logger *slog.Logger) (*inventree.Client, error) {
	return m.GetAPIClientMock(cfg, logger)
}

func (m *MockHelper) GetLabelStore(cfg config.Hook) (metadata.LabelStore, func(), error) {
	if m.GetLabelStoreMock == nil {
		return metadata.NewMemoryStore(), func() {}, nil
	}
	return m.GetLabelStoreMock(cfg)
}
