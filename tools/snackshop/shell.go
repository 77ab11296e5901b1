package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/models"
	"github.com/yashrajoria/bms-storefront/payment"
)

const help = `commands:
  search <text>       filter products by name
  category <c>        MAKANAN_RINGAN, KUE_KERING or ALL
  sort <choice>       asc, desc, price-low, price-high
  page <n> | next | prev
  open <query>        load a shared query string, e.g. category=KUE_KERING&page=2
  checkout <city>; <address>; <notes>
                      order the cart and open the payment page
  unpaid              list orders waiting for payment
  pay <order_id>      reopen the payment page for an unpaid order
  forget <order_id>   drop an unpaid order
  quit`

// shell runs the line commands of the terminal storefront.
type shell struct {
	ctx      context.Context
	userID   string
	token    string
	products *listing.Controller[models.Product]
	ledgers  *ledger.Opener
	payments *payment.Service
	widget   payment.Widget
	in       *bufio.Reader
	out      io.Writer
}

// render prints a settled listing state.
func (s *shell) render(st listing.State[models.Product]) {
	if st.Loading {
		return
	}
	if st.Err != nil {
		fmt.Fprintf(s.out, "! %s\n", apperrors.From(st.Err).Message)
	}
	fmt.Fprintf(s.out, "?%s\n", st.Search)
	if len(st.Items) == 0 {
		fmt.Fprintln(s.out, "  (no products)")
	}
	for _, p := range st.Items {
		fmt.Fprintf(s.out, "  %-6s %-30s %12s  stok %d\n", p.ID, p.Name, models.FormatRupiah(p.Price), p.Stock)
	}
	total := st.Pagination.TotalPage
	if total < 1 {
		total = 1
	}
	fmt.Fprintf(s.out, "  page %d/%d  prev:%t next:%t\n", st.Query.Page, total, st.CanPrev, st.CanNext)
}

// run reads commands until quit or end of input.
func (s *shell) run() error {
	fmt.Fprintln(s.out, help)
	for {
		fmt.Fprint(s.out, "> ")
		line, err := s.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if quit := s.exec(line); quit {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// exec runs one command line and reports whether the shell should stop.
func (s *shell) exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(s.out, help)
	case "search":
		s.products.SetSearch(arg)
	case "category":
		s.products.SetCategory(strings.ToUpper(arg))
	case "sort":
		s.products.SetSort(arg)
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(s.out, "usage: page <n>")
			return false
		}
		s.products.SetPage(n)
	case "next":
		if !s.products.State().CanNext {
			fmt.Fprintln(s.out, "already on the last page")
			return false
		}
		s.products.Next()
	case "prev":
		if !s.products.State().CanPrev {
			fmt.Fprintln(s.out, "already on the first page")
			return false
		}
		s.products.Prev()
	case "open":
		s.products.Navigate(arg)
	case "checkout":
		s.checkout(arg)
	case "unpaid":
		s.unpaid()
	case "pay":
		s.pay(models.ID(arg))
	case "forget":
		s.forget(models.ID(arg))
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
	}
	s.products.Wait()
	return false
}

func (s *shell) ledger() (*ledger.Ledger, bool) {
	led, err := s.ledgers.Open(s.ctx, s.userID)
	if err != nil {
		fmt.Fprintf(s.out, "! %s\n", apperrors.From(err).Message)
		return nil, false
	}
	return led, true
}

func (s *shell) unpaid() {
	led, ok := s.ledger()
	if !ok {
		return
	}
	orders := led.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(s.out, "  no unpaid orders")
		return
	}
	for _, o := range orders {
		fmt.Fprintf(s.out, "  order %s\n", o.OrderID)
	}
}

func (s *shell) checkout(arg string) {
	parts := strings.Split(arg, ";")
	if len(parts) != 3 {
		fmt.Fprintln(s.out, "usage: checkout <city>; <address>; <notes>")
		return
	}
	req := payment.CheckoutRequest{
		City:    strings.TrimSpace(parts[0]),
		Address: strings.TrimSpace(parts[1]),
		Notes:   strings.TrimSpace(parts[2]),
	}
	res, err := s.payments.Checkout(s.ctx, s.userID, s.token, req)
	if err != nil {
		n := payment.ErrorNotice(err)
		fmt.Fprintf(s.out, "[%s] %s\n", n.Title, n.Text)
		return
	}
	fmt.Fprintf(s.out, "  order %s placed, other costs %s\n", res.OrderID, models.FormatRupiah(res.OtherCosts))

	outcome, err := s.widget.Pay(s.ctx, res.SnapToken)
	if err != nil {
		fmt.Fprintf(s.out, "! %v\n", err)
		return
	}
	s.report(s.payments.Complete(s.ctx, s.userID, res.Attempt.ID, outcome))
}

func (s *shell) report(done *payment.Completion, err error) {
	if err != nil {
		n := payment.ErrorNotice(err)
		fmt.Fprintf(s.out, "[%s] %s\n", n.Title, n.Text)
		return
	}
	fmt.Fprintf(s.out, "[%s] %s\n", done.Notice.Title, done.Notice.Text)
	if !done.Durable {
		fmt.Fprintln(s.out, "! unpaid orders could not be saved to disk")
	}
}

func (s *shell) pay(orderID models.ID) {
	if orderID == "" {
		fmt.Fprintln(s.out, "usage: pay <order_id>")
		return
	}
	s.report(s.payments.Run(s.ctx, s.userID, orderID, s.widget))
}

func (s *shell) forget(orderID models.ID) {
	if orderID == "" {
		fmt.Fprintln(s.out, "usage: forget <order_id>")
		return
	}
	led, ok := s.ledger()
	if !ok {
		return
	}
	if _, found := led.Find(orderID); !found {
		fmt.Fprintf(s.out, "  order %s is not in the unpaid list\n", orderID)
		return
	}
	led.Remove(s.ctx, orderID)
	fmt.Fprintf(s.out, "  forgot order %s\n", orderID)
}
