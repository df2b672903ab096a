package openai

import (
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/quayside/gangway/internal/registry"
	"github.com/quayside/gangway/provider"
)

var modelRegistry = registry.New[provider.Model]()

func GPT4oMini(opts ...option.RequestOption) provider.Model {
	return Model(openai.ChatModelGPT4oMini, opts...)
}

func GPT4o(opts ...option.RequestOption) provider.Model {
	return Model(openai.ChatModelChatgpt4oLatest, opts...)
}

func O1Mini(opts ...option.RequestOption) provider.Model {
	return Model(openai.ChatModelO1Mini, opts...)
}

func O1(opts ...option.RequestOption) provider.Model {
	return Model(openai.ChatModelO1, opts...)
}

func Model(name string, opts ...option.RequestOption) provider.Model {
	m, _ := modelRegistry.GetOrAdd(name, func() provider.Model {
		return &model{
			name: name,
			opts: opts,
		}
	})
	return m
}

var _ provider.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     *Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.ChatService {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
