package dto

// VincularItemRequest binds a raw marketplace line item to an internal
// product. Exactly one of item_row_id / external_item_id must identify the
// item. SourceCard = "nao_vinculados" adds the dead-stock availability check.
type VincularItemRequest struct {
	PedidoID       string  `json:"order_id"         validate:"required,uuid"`
	ItemRowID      *string `json:"item_row_id"      validate:"omitempty,uuid"`
	ExternalItemID *string `json:"external_item_id" validate:"omitempty,max=60"`
	ProdutoID      string  `json:"product_id"       validate:"required,uuid"`
	SourceCard     string  `json:"source_card"      validate:"omitempty,oneof=nao_vinculados pedidos"`
}

type ItemVinculadoResponse struct {
	ItemID    string  `json:"item_id"`
	SKU       *string `json:"sku,omitempty"`
	Titulo    string  `json:"titulo"`
	ProdutoID string  `json:"produto_id"`
}

type VincularItemResponse struct {
	OK               bool                  `json:"ok"`
	PedidoID         string                `json:"order_id"`
	Item             ItemVinculadoResponse `json:"item"`
	HasUnlinkedItems bool                  `json:"has_unlinked_items"`
}
