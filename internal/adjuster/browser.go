package adjuster

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"knaito/fleapriceworker/internal/models"
	"knaito/fleapriceworker/logger"
	apperrors "knaito/fleapriceworker/pkg/errors"
)

// priceInputSelectors locate the price field on the item edit page,
// most specific first
var priceInputSelectors = []string{
	`input[name="price"]`,
	`input[data-testid="price-input"]`,
	`input[placeholder*="価格"]`,
	`input[id*="price"]`,
	`input[class*="price"]`,
}

// saveButtonSelectors locate the submit button on the item edit page
var saveButtonSelectors = []string{
	`button:has-text("変更を保存")`,
	`button:has-text("出品する")`,
	`button:has-text("保存")`,
	`button:has-text("更新")`,
	`button[data-testid="save-button"]`,
	`button[data-testid="update-button"]`,
	`button[data-testid="submit-button"]`,
	`button[type="submit"]`,
	`button[class*="save"]`,
	`button[class*="submit"]`,
}

// BrowserApplier applies price changes by driving a headless browser through
// the marketplace's item edit form: navigate to the edit page, fill the price
// input, press save. All waits carry fixed ceilings.
type BrowserApplier struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	log     *logger.Logger
}

// NewBrowserApplier launches the browser used for all applications
func NewBrowserApplier(headless bool) (*BrowserApplier, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &BrowserApplier{
		pw:      pw,
		browser: browser,
		log:     logger.ForAdjuster(),
	}, nil
}

// EditURL derives the item edit page URL from the item detail URL
func EditURL(itemURL string) string {
	return strings.Replace(itemURL, "/item/", "/sell/edit/", 1)
}

// Apply navigates to the product's edit page and submits the new price
func (b *BrowserApplier) Apply(ctx context.Context, product models.Product, newPrice int) error {
	editURL := EditURL(product.URL)
	if editURL == product.URL && !strings.Contains(editURL, "/sell/edit/") {
		return apperrors.NewApplication("browser", "cannot derive edit page URL from "+product.URL, nil)
	}

	page, err := b.browser.NewPage()
	if err != nil {
		return apperrors.NewApplication("browser", "failed to open page", err)
	}
	defer page.Close()

	if _, err := page.Goto(editURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(30000),
	}); err != nil {
		return apperrors.NewApplication("browser", "failed to open edit page", err)
	}

	priceInput, err := b.waitForAny(page, priceInputSelectors, 10*time.Second)
	if err != nil {
		return apperrors.NewApplication("browser", "price input not found", err)
	}

	if err := priceInput.Fill(strconv.Itoa(newPrice)); err != nil {
		return apperrors.NewApplication("browser", "failed to fill price input", err)
	}

	saveButton, err := b.waitForAny(page, saveButtonSelectors, 10*time.Second)
	if err != nil {
		return apperrors.NewApplication("browser", "save button not found", err)
	}

	if err := saveButton.Click(); err != nil {
		return apperrors.NewApplication("browser", "failed to click save button", err)
	}

	// Give the form submission time to settle before the page closes
	page.WaitForTimeout(3000)

	b.log.Debug().
		Str("product", product.ProductID).
		Int("new_price", newPrice).
		Msg("Submitted price change through edit form")

	return nil
}

// waitForAny tries each selector in order with a per-attempt timeout until
// one appears or the overall budget is spent
func (b *BrowserApplier) waitForAny(page playwright.Page, selectors []string, budget time.Duration) (playwright.ElementHandle, error) {
	deadline := time.Now().Add(budget)
	perAttempt := 2000.0

	for time.Now().Before(deadline) {
		for _, sel := range selectors {
			el, err := page.WaitForSelector(sel, playwright.PageWaitForSelectorOptions{
				Timeout: playwright.Float(perAttempt),
				State:   playwright.WaitForSelectorStateVisible,
			})
			if err == nil && el != nil {
				return el, nil
			}
		}
	}

	return nil, fmt.Errorf("none of %d selectors matched within %v", len(selectors), budget)
}

// Name identifies the mechanism for logging
func (b *BrowserApplier) Name() string {
	return "browser"
}

// Close shuts the browser down
func (b *BrowserApplier) Close() error {
	if err := b.browser.Close(); err != nil {
		return err
	}
	return b.pw.Stop()
}
