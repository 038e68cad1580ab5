package chat

import (
	"github.com/google/wire"

	"github.com/homebase/backend/internal/infrastructure/llm"
	"github.com/homebase/backend/internal/infrastructure/tokenizer"
	"github.com/homebase/backend/internal/infrastructure/websocket"
)

// ProviderSet Chat 应用层依赖注入
var ProviderSet = wire.NewSet(
	NewContextService,
	NewAssembler,
	NewRecallService,
	wire.Bind(new(TokenEstimator), new(*tokenizer.Estimator)),
	wire.Bind(new(SummaryGenerator), new(*llm.Client)),
	wire.Bind(new(EventNotifier), new(*websocket.Hub)),
	wire.Bind(new(SnapshotIndexer), new(*RecallService)),
)
