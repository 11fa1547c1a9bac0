package traprepeat

// checkpoint模式版本。恢复时校验，避免旧格式静默损坏状态
const stateSchemaVersion = 1

// 网格状态：整pip粒度的价格键 -> 该价位已登记的订单id。
// 键只在查询时判断有效性，订单在券商侧消失后旧键不会被主动清理，
// 只会在后续登记时被覆盖
type State struct {
	SchemaVersion int               `json:"schema_version"`
	Orders        map[string]string `json:"orders"`
}

func newState() *State {
	return &State{
		SchemaVersion: stateSchemaVersion,
		Orders:        make(map[string]string),
	}
}
