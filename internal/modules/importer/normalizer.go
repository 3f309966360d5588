package importer

import (
	"encoding/json"
	"fmt"

	"github.com/vivekn/networth/internal/modules/assets"
)

// Recognized snapshot shapes. Detection is explicit: each variant has a
// typed model and a dedicated normalizer function. A document matching no
// shape is treated as containing no holdings, not as an error.
type snapshotShape int

const (
	shapeUnknown snapshotShape = iota
	shapeBrokerExport
	shapeCASStatement
	shapeFlatParser
)

// brokerExport is the portfolio export shape: demat accounts with typed
// sub-collections plus fund-house entries with per-scheme units/value.
type brokerExport struct {
	DematAccounts []struct {
		DPName   string `json:"dp_name"`
		Holdings struct {
			Equities             []brokerItem `json:"equities"`
			DematMutualFunds     []brokerItem `json:"demat_mutual_funds"`
			CorporateBonds       []brokerItem `json:"corporate_bonds"`
			GovernmentSecurities []brokerItem `json:"government_securities"`
		} `json:"holdings"`
	} `json:"demat_accounts"`
	MutualFunds []struct {
		AMC     string       `json:"amc"`
		Schemes []brokerItem `json:"schemes"`
	} `json:"mutual_funds"`
}

type brokerItem struct {
	Name  string    `json:"name"`
	Units flexFloat `json:"units"`
	Value flexFloat `json:"value"`
	ISIN  string    `json:"isin"`
}

// casStatement is the parsed depository statement shape: accounts with
// equities (num_shares) and mutual funds (balance).
type casStatement struct {
	Accounts []struct {
		Name     string `json:"name"`
		Equities []struct {
			Name      string    `json:"name"`
			NumShares flexFloat `json:"num_shares"`
			Value     flexFloat `json:"value"`
			ISIN      string    `json:"isin"`
		} `json:"equities"`
		MutualFunds []struct {
			Name    string    `json:"name"`
			Balance flexFloat `json:"balance"`
			Value   flexFloat `json:"value"`
			ISIN    string    `json:"isin"`
		} `json:"mutual_funds"`
	} `json:"accounts"`
}

// flatParser is the minimal shape produced by the standalone statement
// parser: top-level equities and demat mutual fund lists.
type flatParser struct {
	Equities []brokerItem `json:"equities"`
	MFDemat  []brokerItem `json:"mf_demat"`
}

// Normalize parses a raw snapshot document and flattens it into incoming
// items. Invalid JSON is the only error; an unrecognized shape yields an
// empty sequence. Pure transform, no side effects.
func Normalize(raw []byte) ([]IncomingItem, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}

	switch detectShape(probe) {
	case shapeBrokerExport:
		return normalizeBrokerExport(raw)
	case shapeCASStatement:
		return normalizeCASStatement(raw)
	case shapeFlatParser:
		return normalizeFlatParser(raw)
	default:
		return nil, nil
	}
}

// detectShape picks the variant from the document's top-level keys.
// Order matters: the CAS "accounts" key wins over a stray "equities" key,
// and the broker export keys win over both.
func detectShape(probe map[string]json.RawMessage) snapshotShape {
	if _, ok := probe["demat_accounts"]; ok {
		return shapeBrokerExport
	}
	if _, ok := probe["mutual_funds"]; ok {
		return shapeBrokerExport
	}
	if _, ok := probe["accounts"]; ok {
		return shapeCASStatement
	}
	if _, ok := probe["equities"]; ok {
		return shapeFlatParser
	}
	return shapeUnknown
}

func normalizeBrokerExport(raw []byte) ([]IncomingItem, error) {
	var doc brokerExport
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode broker export snapshot: %w", err)
	}

	var items []IncomingItem
	appendItems := func(list []brokerItem, assetType, subAccount string) {
		for _, it := range list {
			items = append(items, IncomingItem{
				Name:       it.Name,
				AssetType:  assetType,
				Quantity:   float64(it.Units),
				Value:      float64(it.Value),
				ISIN:       it.ISIN,
				SubAccount: subAccount,
			})
		}
	}

	for _, acc := range doc.DematAccounts {
		appendItems(acc.Holdings.Equities, assets.TypeStock, acc.DPName)
		appendItems(acc.Holdings.DematMutualFunds, assets.TypeMutualFund, acc.DPName)
		appendItems(acc.Holdings.CorporateBonds, assets.TypeBond, acc.DPName)
		appendItems(acc.Holdings.GovernmentSecurities, assets.TypeGovtSec, acc.DPName)
	}

	for _, fh := range doc.MutualFunds {
		appendItems(fh.Schemes, assets.TypeMutualFund, fh.AMC)
	}

	return items, nil
}

func normalizeCASStatement(raw []byte) ([]IncomingItem, error) {
	var doc casStatement
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode CAS snapshot: %w", err)
	}

	var items []IncomingItem
	for _, acc := range doc.Accounts {
		for _, eq := range acc.Equities {
			name := eq.Name
			if name == "" {
				name = "Unknown"
			}
			items = append(items, IncomingItem{
				Name:       name,
				AssetType:  assets.TypeStock,
				Quantity:   float64(eq.NumShares),
				Value:      float64(eq.Value),
				ISIN:       eq.ISIN,
				SubAccount: acc.Name,
			})
		}
		for _, mf := range acc.MutualFunds {
			name := mf.Name
			if name == "" {
				name = "Unknown"
			}
			items = append(items, IncomingItem{
				Name:       name,
				AssetType:  assets.TypeMutualFund,
				Quantity:   float64(mf.Balance),
				Value:      float64(mf.Value),
				ISIN:       mf.ISIN,
				SubAccount: acc.Name,
			})
		}
	}

	return items, nil
}

func normalizeFlatParser(raw []byte) ([]IncomingItem, error) {
	var doc flatParser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode flat parser snapshot: %w", err)
	}

	var items []IncomingItem
	for _, eq := range doc.Equities {
		items = append(items, IncomingItem{
			Name:       eq.Name,
			AssetType:  assets.TypeStock,
			Quantity:   float64(eq.Units),
			Value:      float64(eq.Value),
			ISIN:       eq.ISIN,
			SubAccount: "CDSL",
		})
	}
	for _, mf := range doc.MFDemat {
		items = append(items, IncomingItem{
			Name:       mf.Name,
			AssetType:  assets.TypeMutualFund,
			Quantity:   float64(mf.Units),
			Value:      float64(mf.Value),
			ISIN:       mf.ISIN,
			SubAccount: "CDSL",
		})
	}

	return items, nil
}
