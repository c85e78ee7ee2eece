package http

import (
	"encoding/json"
	"fmt"

	"github.com/garyjia/expense-intake/internal/application/expenseform"
)

// ActionRequest is the wire form of a reducer action
type ActionRequest struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

type actionDecoder func(raw json.RawMessage) (expenseform.Action, error)

var actionDecoders = map[string]actionDecoder{
	expenseform.SelectPayee{}.ActionName():           decodeAs[expenseform.SelectPayee],
	expenseform.ChangeType{}.ActionName():            decodeAs[expenseform.ChangeType],
	expenseform.ChangeCurrency{}.ActionName():        decodeAs[expenseform.ChangeCurrency],
	expenseform.SelectPayoutMethod{}.ActionName():    decodeAs[expenseform.SelectPayoutMethod],
	expenseform.SetLocation{}.ActionName():           decodeAs[expenseform.SetLocation],
	expenseform.AddItem{}.ActionName():               decodeAs[expenseform.AddItem],
	expenseform.RemoveItem{}.ActionName():            decodeAs[expenseform.RemoveItem],
	expenseform.ChangeItemAmount{}.ActionName():      decodeAs[expenseform.ChangeItemAmount],
	expenseform.UpdateItem{}.ActionName():            decodeAs[expenseform.UpdateItem],
	expenseform.ItemParsed{}.ActionName():            decodeAs[expenseform.ItemParsed],
	expenseform.SetManualRate{}.ActionName():         decodeAs[expenseform.SetManualRate],
	expenseform.SetTaxes{}.ActionName():              decodeAs[expenseform.SetTaxes],
	expenseform.SetAccountingCategory{}.ActionName(): decodeAs[expenseform.SetAccountingCategory],
	expenseform.SetAttachedFiles{}.ActionName():      decodeAs[expenseform.SetAttachedFiles],
	expenseform.SetDetails{}.ActionName():            decodeAs[expenseform.SetDetails],
}

func decodeAs[T expenseform.Action](raw json.RawMessage) (expenseform.Action, error) {
	var action T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &action); err != nil {
			return nil, err
		}
	}
	return action, nil
}

// DecodeAction turns a request into the action named by its type
func DecodeAction(req ActionRequest) (expenseform.Action, error) {
	decode, ok := actionDecoders[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", expenseform.ErrUnknownAction, req.Type)
	}
	action, err := decode(req.Payload)
	if err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", req.Type, err)
	}
	return action, nil
}
