package infrastructure

import (
	"github.com/google/wire"

	"github.com/homebase/backend/internal/infrastructure/config"
	"github.com/homebase/backend/internal/infrastructure/discovery"
	"github.com/homebase/backend/internal/infrastructure/embedding"
	"github.com/homebase/backend/internal/infrastructure/llm"
	"github.com/homebase/backend/internal/infrastructure/settings"
	"github.com/homebase/backend/internal/infrastructure/storage"
	"github.com/homebase/backend/internal/infrastructure/tokenizer"
	"github.com/homebase/backend/internal/infrastructure/vector"
	"github.com/homebase/backend/internal/infrastructure/websocket"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	discovery.ProviderSet,
	settings.ProviderSet,
	storage.ProviderSet,
	tokenizer.ProviderSet,
	llm.ProviderSet,
	embedding.ProviderSet,
	vector.ProviderSet,
	websocket.ProviderSet,
)
