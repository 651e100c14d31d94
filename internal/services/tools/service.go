package tools

import (
	"encoding/json"
	"fmt"

	"ramen-house/internal/logger"
	"ramen-house/internal/menu"
)

// Tool names accepted in the call envelope.
const (
	ToolListMenus   = "get_list_menus"
	ToolMenuDetails = "get_menu_details"
	ToolConstraints = "get_constraints"
)

// Call is the tool invocation envelope.
type Call struct {
	ToolName  string                 `json:"toolName"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Property describes one tool argument for discovery.
type Property struct {
	Name         string `json:"name"`
	PropertyType string `json:"propertyType"`
	Description  string `json:"description"`
	Required     bool   `json:"required"`
}

// Descriptor describes one tool for discovery.
type Descriptor struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Properties  []Property `json:"properties"`
}

// Service answers read-only menu queries. Results are formatted strings:
// JSON payloads on success, plain sentences for argument failures. That
// asymmetry with the REST surface is part of the contract.
type Service struct {
	menu   *menu.Reader
	logger *logger.Logger
}

// NewService creates the tool query service.
func NewService(menuReader *menu.Reader, log *logger.Logger) *Service {
	return &Service{
		menu:   menuReader,
		logger: log,
	}
}

// Descriptors lists the available tools.
func (s *Service) Descriptors() []Descriptor {
	return []Descriptor{
		{
			Name:        ToolListMenus,
			Description: "Get the restaurant menu list.",
			Properties:  []Property{},
		},
		{
			Name:        ToolMenuDetails,
			Description: "Get details for a specific menu item.",
			Properties: []Property{
				{
					Name:         "itemId",
					PropertyType: "string",
					Description:  "Menu item id (example: ramen-shoyu)",
					Required:     true,
				},
			},
		},
		{
			Name:        ToolConstraints,
			Description: "Get ordering constraints (hours, limits, notes).",
			Properties:  []Property{},
		},
	}
}

// Invoke dispatches a tool call. The returned error is reserved for
// catalog read failures; everything else, unknown tools included, comes
// back as the result string.
func (s *Service) Invoke(call Call, requestID string) (string, error) {
	switch call.ToolName {
	case ToolListMenus:
		return s.listMenus(requestID)
	case ToolMenuDetails:
		return s.menuDetails(call.Arguments, requestID)
	case ToolConstraints:
		return s.constraints(requestID)
	default:
		return fmt.Sprintf("Unknown tool: %s", call.ToolName), nil
	}
}

type menuListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	BasePrice int    `json:"basePrice"`
	Available bool   `json:"available"`
}

type menuListResponse struct {
	MenuVersion string         `json:"menuVersion"`
	Categories  []string       `json:"categories"`
	Items       []menuListItem `json:"items"`
}

func (s *Service) listMenus(requestID string) (string, error) {
	catalog, err := s.menu.Load()
	if err != nil {
		return "", err
	}

	response := menuListResponse{
		MenuVersion: catalog.MenuVersion,
		Categories:  catalog.Categories,
		Items:       make([]menuListItem, 0, len(catalog.Items)),
	}
	if response.Categories == nil {
		response.Categories = []string{}
	}

	for _, item := range catalog.Items {
		response.Items = append(response.Items, menuListItem{
			ID:        item.ID,
			Name:      item.Name,
			Category:  item.Category,
			BasePrice: item.BasePrice,
			Available: item.Available,
		})
	}

	s.logger.Debug("tool_invoked", "get_list_menus called", requestID, nil)
	return marshalResult(response)
}

type menuDetailsResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	BasePrice   int               `json:"basePrice"`
	Allergens   []string          `json:"allergens"`
	Options     []json.RawMessage `json:"options"`
}

func (s *Service) menuDetails(arguments map[string]interface{}, requestID string) (string, error) {
	itemID, _ := arguments["itemId"].(string)
	if itemID == "" {
		return "Missing required argument: itemId", nil
	}

	catalog, err := s.menu.Load()
	if err != nil {
		return "", err
	}

	item := catalog.FindItem(itemID)
	if item == nil {
		return fmt.Sprintf("Menu item not found: %s", itemID), nil
	}

	response := menuDetailsResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		BasePrice:   item.BasePrice,
		Allergens:   item.Allergens,
		Options:     item.Options,
	}
	if response.Allergens == nil {
		response.Allergens = []string{}
	}
	if response.Options == nil {
		response.Options = []json.RawMessage{}
	}

	s.logger.Debug("tool_invoked", "get_menu_details called", requestID, map[string]interface{}{
		"item_id": itemID,
	})
	return marshalResult(response)
}

type constraintsResponse struct {
	OpenHours        string   `json:"openHours"`
	MaxItemsPerOrder int      `json:"maxItemsPerOrder"`
	Notes            []string `json:"notes"`
}

func (s *Service) constraints(requestID string) (string, error) {
	catalog, err := s.menu.Load()
	if err != nil {
		return "", err
	}

	response := constraintsResponse{
		OpenHours:        catalog.Constraints.OpenHours,
		MaxItemsPerOrder: catalog.Constraints.MaxItemsPerOrder,
		Notes:            catalog.Constraints.Notes,
	}
	if response.OpenHours == "" {
		response.OpenHours = "11:00-21:00"
	}
	if response.MaxItemsPerOrder == 0 {
		response.MaxItemsPerOrder = 10
	}
	if response.Notes == nil {
		response.Notes = []string{}
	}

	s.logger.Debug("tool_invoked", "get_constraints called", requestID, nil)
	return marshalResult(response)
}

func marshalResult(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}
