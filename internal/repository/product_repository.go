package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shoply/catalog-api/internal/model"
)

// ProductRepo provides data access to the products table.  Write
// operations enforce ownership: only the creating user may update or
// delete a product, otherwise ErrForbidden is returned.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,user_id,name,description,price,stock,image_url,created_at,updated_at"

// CreateProductParams carries the fields accepted on product creation.
type CreateProductParams struct {
	UserID      uint64
	Name        string
	Description string
	Price       float64
	Stock       int
	ImageURL    string
}

// Create inserts a product owned by the given user and returns the row.
func (r *ProductRepo) Create(ctx context.Context, p CreateProductParams) (model.Product, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (user_id, name, description, price, stock, image_url) VALUES (?,?,?,?,?,?)",
		p.UserID, p.Name, p.Description, p.Price, p.Stock, p.ImageURL)
	if err != nil {
		return model.Product{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Product{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a product by id; sql.ErrNoRows is passed through.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id)
	return scanProduct(row)
}

// List returns one page of products newest-first plus the total count.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]model.Product, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := make([]model.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// ListByUser returns every product owned by a user, newest-first.
func (r *ProductRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE user_id=? ORDER BY created_at DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProductParams carries the mutable product fields.  Nil pointers
// mean "leave unchanged".
type UpdateProductParams struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	ImageURL    *string
}

// Update applies the non-nil fields after verifying ownership.  It returns
// sql.ErrNoRows for a missing product and ErrForbidden when the caller
// does not own it.
func (r *ProductRepo) Update(ctx context.Context, id, userID uint64, p UpdateProductParams) (model.Product, error) {
	if err := r.checkOwner(ctx, id, userID); err != nil {
		return model.Product{}, err
	}
	sets := []string{}
	args := []interface{}{}
	if p.Name != nil {
		sets, args = append(sets, "name=?"), append(args, *p.Name)
	}
	if p.Description != nil {
		sets, args = append(sets, "description=?"), append(args, *p.Description)
	}
	if p.Price != nil {
		sets, args = append(sets, "price=?"), append(args, *p.Price)
	}
	if p.Stock != nil {
		sets, args = append(sets, "stock=?"), append(args, *p.Stock)
	}
	if p.ImageURL != nil {
		sets, args = append(sets, "image_url=?"), append(args, *p.ImageURL)
	}
	if len(sets) > 0 {
		query := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id=?"
		args = append(args, id)
		if _, err := r.DB.ExecContext(ctx, query, args...); err != nil {
			return model.Product{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product after verifying ownership.
func (r *ProductRepo) Delete(ctx context.Context, id, userID uint64) error {
	if err := r.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	return err
}

func (r *ProductRepo) checkOwner(ctx context.Context, id, userID uint64) error {
	var owner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM products WHERE id=? LIMIT 1", id).Scan(&owner)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

func scanProduct(row rowScanner) (model.Product, error) {
	var (
		p        model.Product
		desc     sql.NullString
		imageURL sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &desc, &p.Price, &p.Stock,
		&imageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	p.Description = desc.String
	p.ImageURL = imageURL.String
	return p, nil
}
