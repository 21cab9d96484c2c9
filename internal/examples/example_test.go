// Package examples walks through the library API end to end, the way a client
// would use it: create a user and a book, borrow, list and return.
package examples

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/patric-chuzhbe/library/internal/db/memorystorage"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/originchecker"
	"github.com/patric-chuzhbe/library/internal/router"
	"github.com/patric-chuzhbe/library/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newServer() *httptest.Server {
	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	origins, err := originchecker.New()
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(router.New(service.New(db), origins, nil))
}

func call(method, url, body string) (int, []byte) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	return resp.StatusCode, b
}

func Example_borrowAndReturn() {
	server := newServer()
	defer server.Close()

	var usr models.User
	_, body := call(http.MethodPost, server.URL+"/users", `{"firstName":"Ann","lastName":"Lee","username":"alee5"}`)
	if err := json.Unmarshal(body, &usr); err != nil {
		panic(err)
	}

	var book models.Book
	_, body = call(http.MethodPost, server.URL+"/books", `{"title":"Dune","author":"Herbert","year":1965}`)
	if err := json.Unmarshal(body, &book); err != nil {
		panic(err)
	}

	status, _ := call(http.MethodPost, server.URL+"/users/"+usr.ID+"/books", `{"book_id":"`+book.ID+`"}`)
	fmt.Println("borrow:", status)

	var books []models.Book
	status, body = call(http.MethodGet, server.URL+"/users/"+usr.ID+"/books", "")
	if err := json.Unmarshal(body, &books); err != nil {
		panic(err)
	}
	fmt.Println("list:", status, len(books), books[0].Title)

	status, _ = call(http.MethodDelete, server.URL+"/users/"+usr.ID+"/books/"+book.ID, "")
	fmt.Println("return:", status)

	status, body = call(http.MethodGet, server.URL+"/users/"+usr.ID+"/books", "")
	fmt.Println("list:", status, string(body))

	// Output:
	// borrow: 200
	// list: 200 1 Dune
	// return: 204
	// list: 200 []
}

func Example_errors() {
	server := newServer()
	defer server.Close()

	status, body := call(http.MethodGet, server.URL+"/users/not-an-id", "")
	fmt.Println(status, string(body))

	status, body = call(http.MethodGet, server.URL+"/shelves", "")
	fmt.Println(status, string(body))

	status, body = call(http.MethodPost, server.URL+"/books", `{"title":"D","author":"Herbert","year":1965}`)
	fmt.Println(status, strings.HasPrefix(string(body), `{"error":"Internal server error","message":`))

	// Output:
	// 404 {"error":"User not found"}
	// 404 {"error":"Not found"}
	// 500 true
}
