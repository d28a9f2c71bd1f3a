package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/javajoker/agriconnect-backend/internal/apiclient"
	"github.com/javajoker/agriconnect-backend/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	eventStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func statusStyle(status models.OrderStatus) lipgloss.Style {
	switch status {
	case models.OrderStatusDelivered, models.OrderStatusAccepted:
		return okStyle
	case models.OrderStatusRejected:
		return badStyle
	default:
		return lipgloss.NewStyle()
	}
}

// renderTable draws rows with borders on a terminal and as tab separated
// values otherwise.
func (a *app) renderTable(headers []string, rows [][]string) {
	if a.plain {
		a.printf("%s\n", strings.Join(headers, "\t"))
		for _, row := range rows {
			a.printf("%s\n", strings.Join(row, "\t"))
		}
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	a.printf("%s\n", t.Render())
}

func (a *app) style(s lipgloss.Style, text string) string {
	if a.plain {
		return text
	}
	return s.Render(text)
}

func (a *app) renderPagination(p apiclient.Pagination) {
	if p.TotalPages > 1 {
		a.printf("%s\n", a.style(mutedStyle, fmt.Sprintf("page %d of %d (%d total)", p.Page, p.TotalPages, p.Total)))
	}
}

func (a *app) renderUser(u *models.User) {
	a.printf("%s %s\n", a.style(headerStyle, u.Name), a.style(mutedStyle, "<"+u.Email+">"))
	a.printf("  id:       %s\n", u.ID)
	a.printf("  role:     %s\n", u.Role)
	if u.Phone != "" {
		a.printf("  phone:    %s\n", u.Phone)
	}
	if u.Location != "" {
		a.printf("  location: %s\n", u.Location)
	}
}

func (a *app) renderProducts(page *apiclient.Page[models.Product]) {
	rows := make([][]string, 0, len(page.Items))
	for _, p := range page.Items {
		farmer := ""
		if p.Farmer != nil {
			farmer = p.Farmer.Name
		}
		rows = append(rows, []string{
			p.ID.String(), p.Name, p.Category,
			p.PricePerUnit.StringFixed(2) + "/" + p.Unit,
			fmt.Sprint(p.QuantityAvailable), farmer,
		})
	}
	a.renderTable([]string{"ID", "NAME", "CATEGORY", "PRICE", "STOCK", "FARMER"}, rows)
	a.renderPagination(page.Pagination)
}

func (a *app) renderProduct(p *models.Product) {
	a.printf("%s\n", a.style(headerStyle, p.Name))
	a.printf("  id:       %s\n", p.ID)
	if p.Farmer != nil {
		a.printf("  farmer:   %s (%s)\n", p.Farmer.Name, p.Farmer.Location)
	}
	a.printf("  price:    %s per %s\n", p.PricePerUnit.StringFixed(2), p.Unit)
	a.printf("  stock:    %d\n", p.QuantityAvailable)
	a.printf("  rating:   %.1f (%d reviews)\n", p.Rating, p.ReviewCount)
	a.printf("  views:    %d\n", p.Views)
	if p.Description != "" {
		a.printf("\n%s\n", p.Description)
	}
	for _, r := range p.Reviews {
		author := "anonymous"
		if r.User != nil {
			author = r.User.Name
		}
		a.printf("  %s %s: %s\n", strings.Repeat("*", r.Rating), author, r.Comment)
	}
}

func (a *app) renderOrders(page *apiclient.Page[models.Order]) {
	rows := make([][]string, 0, len(page.Items))
	for _, o := range page.Items {
		product := o.ProductID.String()
		if o.Product != nil {
			product = o.Product.Name
		}
		rows = append(rows, []string{
			o.ID.String(), product, fmt.Sprint(o.Quantity),
			o.TotalPrice.StringFixed(2), a.style(statusStyle(o.Status), string(o.Status)),
			o.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	a.renderTable([]string{"ID", "PRODUCT", "QTY", "TOTAL", "STATUS", "PLACED"}, rows)
	a.renderPagination(page.Pagination)
}

func (a *app) renderOrder(o *models.Order) {
	a.printf("order %s: %d x %s = %s [%s]\n", o.ID, o.Quantity, o.UnitPrice.StringFixed(2),
		o.TotalPrice.StringFixed(2), a.style(statusStyle(o.Status), string(o.Status)))
}

func (a *app) renderNotifications(page *apiclient.Page[models.Notification]) {
	rows := make([][]string, 0, len(page.Items))
	for _, n := range page.Items {
		mark := ""
		if !n.Read {
			mark = "*"
		}
		rows = append(rows, []string{mark, n.ID.String(), string(n.Type), n.Message, n.CreatedAt.Format("2006-01-02 15:04")})
	}
	a.renderTable([]string{"", "ID", "TYPE", "MESSAGE", "AT"}, rows)
	a.renderPagination(page.Pagination)
}
